package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthzReportsUptimeAndVersion(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h := NewHealthHandlers(
		WithHealthClock(func() time.Time { return now }),
		WithHealthVersion("dev"),
	)
	now = now.Add(90 * time.Second)

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["status"] != "ok" || payload["version"] != "dev" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["uptime"] != "1m30s" {
		t.Fatalf("unexpected uptime %v", payload["uptime"])
	}
}

func TestReadyzAllProbesHealthy(t *testing.T) {
	h := NewHealthHandlers(
		WithHealthCheck("state_store", func(context.Context) error { return nil }),
		WithHealthCheck("catalog", func(context.Context) error { return nil }),
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeEnvelope(t, rec)
	if payload["status"] != "ok" {
		t.Fatalf("unexpected status %v", payload["status"])
	}
	checks := payload["checks"].(map[string]any)
	if len(checks) != 2 {
		t.Fatalf("unexpected checks %v", checks)
	}
}

func TestReadyzDegradedOnProbeFailure(t *testing.T) {
	h := NewHealthHandlers(
		WithHealthCheck("state_store", func(context.Context) error { return nil }),
		WithHealthCheck("catalog", func(context.Context) error { return errors.New("no products") }),
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	if payload["status"] != "degraded" {
		t.Fatalf("unexpected status %v", payload["status"])
	}
	checks := payload["checks"].(map[string]any)
	catalog := checks["catalog"].(map[string]any)
	if catalog["status"] != "down" || catalog["error"] != "no products" {
		t.Fatalf("unexpected check result %v", catalog)
	}
	details := payload["details"].([]any)
	if len(details) != 1 || details[0] != "catalog" {
		t.Fatalf("unexpected details %v", details)
	}
}
