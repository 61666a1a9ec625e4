package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/carpool-signup/internal/platform/auth"
	applog "github.com/janisto/carpool-signup/internal/platform/logging"
	"github.com/janisto/carpool-signup/internal/platform/timeutil"
	profilesvc "github.com/janisto/carpool-signup/internal/service/profile"
)

// Register registers profile endpoints.
func Register(api huma.API, svc profilesvc.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-profile",
		Method:      http.MethodPost,
		Path:        "/submit-profile",
		Summary:     "Submit carpool profile",
		Description: "Stores the profile collected at the end of phone sign-up. Resubmitting replaces it.",
		Tags:        []string{"Profile"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, input *ProfileSubmitInput) (*ProfileSubmitOutput, error) {
		user := auth.UserFromContext(ctx)

		switch {
		case strings.TrimSpace(input.Body.Name) == "":
			return nil, huma.Error422UnprocessableEntity("name is required")
		case strings.TrimSpace(input.Body.Address) == "":
			return nil, huma.Error422UnprocessableEntity("address is required")
		}

		profile, err := svc.Submit(ctx, user.UID, profilesvc.SubmitParams{
			Name:        input.Body.Name,
			Email:       input.Body.Email,
			Address:     input.Body.Address,
			Vehicle:     input.Body.Vehicle,
			Kids:        input.Body.Kids,
			PhoneNumber: user.PhoneNumber,
		})
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ProfileSubmitOutput{Body: toHTTPProfile(profile)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profile",
		Summary:     "Get current user's profile",
		Description: "Retrieves the carpool profile for the authenticated user.",
		Tags:        []string{"Profile"},
		Security: []map[string][]string{
			{"bearerAuth": {}},
		},
	}, func(ctx context.Context, _ *ProfileGetInput) (*ProfileGetOutput, error) {
		user := auth.UserFromContext(ctx)

		profile, err := svc.Get(ctx, user.UID)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ProfileGetOutput{Body: toHTTPProfile(profile)}, nil
	})
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, profilesvc.ErrNotFound):
		return huma.Error404NotFound("profile not found")
	default:
		applog.LogError(ctx, "profile service error", err)
		return huma.Error500InternalServerError("internal error")
	}
}

func toHTTPProfile(p *profilesvc.Profile) Profile {
	return Profile{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Address:     p.Address,
		Vehicle:     p.Vehicle,
		Kids:        p.Kids,
		PhoneNumber: p.PhoneNumber,
		CreatedAt:   timeutil.Time{Time: p.CreatedAt},
		UpdatedAt:   timeutil.Time{Time: p.UpdatedAt},
	}
}
