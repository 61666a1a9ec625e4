package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/carpool-signup/internal/platform/auth"
	applog "github.com/janisto/carpool-signup/internal/platform/logging"
	appmiddleware "github.com/janisto/carpool-signup/internal/platform/middleware"
	"github.com/janisto/carpool-signup/internal/platform/respond"
	profilesvc "github.com/janisto/carpool-signup/internal/service/profile"
)

func newTestRouter() (chi.Router, huma.API) {
	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("RoutesTest", "test"))
	Register(api, &auth.MockVerifier{User: auth.TestUser()}, profilesvc.NewMockProfileService())
	return router, api
}

func TestRegisterRoutesSubmitProfile(t *testing.T) {
	router, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/submit-profile",
		strings.NewReader(`{"name":"Jane","address":"1 Elm St"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set(chimiddleware.RequestIDHeader, "routes-submit")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRegisterRoutesCBOR(t *testing.T) {
	router, _ := newTestRouter()

	body, err := cbor.Marshal(map[string]string{"name": "Jane", "address": "1 Elm St"})
	if err != nil {
		t.Fatalf("cbor marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/submit-profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/cbor")
	req.Header.Set("Accept", "application/cbor")
	req.Header.Set("Authorization", "Bearer token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/cbor" {
		t.Fatalf("expected application/cbor, got %s", ct)
	}
	var out map[string]any
	if err := cbor.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("cbor unmarshal: %v", err)
	}
	if out["name"] != "Jane" {
		t.Fatalf("unexpected body %v", out)
	}
}

func TestRegisterRoutesBearerScheme(t *testing.T) {
	_, api := newTestRouter()

	scheme := api.OpenAPI().Components.SecuritySchemes["bearerAuth"]
	if scheme == nil || scheme.Scheme != "bearer" {
		t.Fatalf("expected bearer scheme, got %+v", scheme)
	}
	raw, err := json.Marshal(api.OpenAPI())
	if err != nil {
		t.Fatalf("marshal openapi: %v", err)
	}
	if !bytes.Contains(raw, []byte("/submit-profile")) {
		t.Fatal("expected /submit-profile in OpenAPI document")
	}
}
