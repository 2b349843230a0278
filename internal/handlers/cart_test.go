package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/safi-group/api/internal/domain"
	"github.com/safi-group/api/internal/services"
)

type stubCartService struct {
	view      services.CartView
	result    services.CheckoutResult
	message   string
	err       error
	sessionID string
	productID string
	delta     int
}

func (s *stubCartService) Cart(_ context.Context, sessionID string) (services.CartView, error) {
	s.sessionID = sessionID
	return s.view, s.err
}

func (s *stubCartService) Add(_ context.Context, sessionID, productID string) (services.CartView, error) {
	s.sessionID, s.productID = sessionID, productID
	return s.view, s.err
}

func (s *stubCartService) Remove(_ context.Context, sessionID, productID string) (services.CartView, error) {
	s.sessionID, s.productID = sessionID, productID
	return s.view, s.err
}

func (s *stubCartService) AdjustQuantity(_ context.Context, sessionID, productID string, delta int) (services.CartView, error) {
	s.sessionID, s.productID, s.delta = sessionID, productID, delta
	return s.view, s.err
}

func (s *stubCartService) Clear(_ context.Context, sessionID string) (services.CartView, error) {
	s.sessionID = sessionID
	return s.view, s.err
}

func (s *stubCartService) CheckoutMessage(_ context.Context, sessionID string) (string, error) {
	s.sessionID = sessionID
	return s.message, s.err
}

func (s *stubCartService) Checkout(_ context.Context, sessionID string) (services.CheckoutResult, error) {
	s.sessionID = sessionID
	return s.result, s.err
}

func cartRouter(svc services.CartService) chi.Router {
	return NewRouter(WithCartRoutes(NewCartHandlers(svc).Routes))
}

func TestGetCartPayload(t *testing.T) {
	stub := &stubCartService{view: services.CartView{
		Lines: []services.CartLine{{
			Product:  domain.Product{ID: "canvas-md", Name: "لوحة كانفس", Price: 180},
			Quantity: 2,
			Subtotal: 360,
		}},
		Total:     360,
		ItemCount: 2,
	}}
	r := cartRouter(stub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeEnvelope(t, rec)
	if payload["total"] != float64(360) || payload["itemCount"] != float64(2) {
		t.Fatalf("unexpected totals in %v", payload)
	}
	items, ok := payload["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected items %v", payload["items"])
	}
	item := items[0].(map[string]any)
	if item["productId"] != "canvas-md" || item["subtotal"] != float64(360) {
		t.Fatalf("unexpected item %v", item)
	}
	if stub.sessionID == "" {
		t.Fatal("expected session id forwarded to service")
	}
}

func TestAddItemDecodesBody(t *testing.T) {
	stub := &stubCartService{}
	r := cartRouter(stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":"gift-pens"}`))
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.productID != "gift-pens" {
		t.Fatalf("expected product forwarded, got %q", stub.productID)
	}
}

func TestAddItemEmptyBody(t *testing.T) {
	r := cartRouter(&stubCartService{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	r := cartRouter(&stubCartService{err: services.ErrCartUnknownProduct})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"productId":"nope"}`))
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["error"] != "product_not_found" {
		t.Fatalf("unexpected error code %v", payload["error"])
	}
	if payload["session_id"] != rec.Header().Get(SessionHeader) {
		t.Fatalf("envelope session %v does not match header %q", payload["session_id"], rec.Header().Get(SessionHeader))
	}
}

func TestAdjustQuantityRejectsZeroDelta(t *testing.T) {
	r := cartRouter(&stubCartService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/canvas-md", strings.NewReader(`{"delta":0}`))
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdjustQuantityForwardsDelta(t *testing.T) {
	stub := &stubCartService{}
	r := cartRouter(stub)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/canvas-md", strings.NewReader(`{"delta":-1}`))
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.productID != "canvas-md" || stub.delta != -1 {
		t.Fatalf("expected forwarded adjustment, got %q %d", stub.productID, stub.delta)
	}
}

func TestCheckoutEmptyCartConflict(t *testing.T) {
	r := cartRouter(&stubCartService{err: services.ErrCartEmpty})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if payload := decodeEnvelope(t, rec); payload["error"] != "cart_empty" {
		t.Fatalf("unexpected error code %v", payload["error"])
	}
}

func TestCheckoutRateLimitedResponse(t *testing.T) {
	r := cartRouter(&stubCartService{err: &services.RateLimitedError{RetryAfter: 42}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "42" {
		t.Fatalf("expected Retry-After header, got %q", rec.Header().Get("Retry-After"))
	}
	payload := decodeEnvelope(t, rec)
	if payload["error"] != "rate_limited" || payload["retry_after_seconds"] != float64(42) {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestCheckoutReturnsHandoff(t *testing.T) {
	r := cartRouter(&stubCartService{result: services.CheckoutResult{
		Link:      "https://wa.me/966555862272?text=order",
		Message:   "order",
		Total:     430,
		ItemCount: 3,
	}})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["link"] != "https://wa.me/966555862272?text=order" || payload["total"] != float64(430) {
		t.Fatalf("unexpected payload %v", payload)
	}
}
