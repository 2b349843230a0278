package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/safi-group/api/internal/platform/requestctx"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return payload
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	r := NewRouter()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["error"] != "route_not_found" {
		t.Fatalf("unexpected error code %v", payload["error"])
	}
}

func TestRouterHealthz(t *testing.T) {
	r := NewRouter()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["status"] != "ok" {
		t.Fatalf("unexpected health payload %v", payload)
	}
}

func TestRouterUnregisteredGroupsReturnNotImplemented(t *testing.T) {
	r := NewRouter()
	for _, path := range []string{
		"/api/v1/catalog/products",
		"/api/v1/brief",
		"/api/v1/cart",
		"/api/v1/preferences",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotImplemented {
			t.Fatalf("%s: expected 501, got %d", path, rec.Code)
		}
	}
}

func TestSessionMiddlewareMintsIdentifier(t *testing.T) {
	var captured string
	handler := SessionMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestctx.SessionID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if captured == "" {
		t.Fatal("expected session id in context")
	}
	if _, err := ulid.ParseStrict(captured); err != nil {
		t.Fatalf("minted id %q is not a ULID: %v", captured, err)
	}
	if rec.Header().Get(SessionHeader) != captured {
		t.Fatalf("response header %q does not echo session %q", rec.Header().Get(SessionHeader), captured)
	}
}

func TestSessionMiddlewareKeepsValidIdentifier(t *testing.T) {
	existing := ulid.Make().String()
	var captured string
	handler := SessionMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestctx.SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, existing)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured != existing {
		t.Fatalf("expected %q kept, got %q", existing, captured)
	}
}

func TestSessionMiddlewareReplacesInvalidIdentifier(t *testing.T) {
	var captured string
	handler := SessionMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestctx.SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "not-a-ulid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured == "not-a-ulid" || captured == "" {
		t.Fatalf("expected fresh identifier, got %q", captured)
	}
	if _, err := ulid.ParseStrict(captured); err != nil {
		t.Fatalf("replacement %q is not a ULID: %v", captured, err)
	}
}
