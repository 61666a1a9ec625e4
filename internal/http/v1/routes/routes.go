package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/carpool-signup/internal/http/v1/profile"
	"github.com/janisto/carpool-signup/internal/platform/auth"
	profilesvc "github.com/janisto/carpool-signup/internal/service/profile"
)

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API, verifier auth.Verifier, profileService profilesvc.Service) {
	// Apply auth middleware for protected endpoints
	api.UseMiddleware(auth.NewAuthMiddleware(api, verifier))

	registerSecuritySchemes(api)
	profile.Register(api, profileService)
}

func registerSecuritySchemes(api huma.API) {
	components := api.OpenAPI().Components
	if components.SecuritySchemes == nil {
		components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
		Description:  "Firebase ID token from phone sign-in",
	}
}
