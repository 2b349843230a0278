package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/safi-group/api/internal/domain"
	"github.com/safi-group/api/internal/platform/kvstore"
)

func newTestPreferences(t *testing.T, store kvstore.Store) PreferenceService {
	t.Helper()
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	svc, err := NewPreferenceService(PreferenceServiceDeps{
		Store: store,
		Clock: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestPreferencesDefaultToDarkTheme(t *testing.T) {
	svc := newTestPreferences(t, nil)
	prefs, err := svc.Preferences(context.Background(), "sess")
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if prefs.Theme != domain.ThemeDark {
		t.Fatalf("expected dark default, got %q", prefs.Theme)
	}
}

func TestSetThemeRejectsUnknownValue(t *testing.T) {
	svc := newTestPreferences(t, nil)
	if _, err := svc.SetTheme(context.Background(), "sess", "neon"); !errors.Is(err, ErrPreferenceInvalidInput) {
		t.Fatalf("expected ErrPreferenceInvalidInput, got %v", err)
	}
}

func TestToggleThemeFlipsBothWays(t *testing.T) {
	ctx := context.Background()
	svc := newTestPreferences(t, nil)

	prefs, err := svc.ToggleTheme(ctx, "sess")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if prefs.Theme != domain.ThemeIdea {
		t.Fatalf("expected idea after first toggle, got %q", prefs.Theme)
	}

	prefs, err = svc.ToggleTheme(ctx, "sess")
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if prefs.Theme != domain.ThemeDark {
		t.Fatalf("expected dark after second toggle, got %q", prefs.Theme)
	}
}

func TestDismissIsSticky(t *testing.T) {
	ctx := context.Background()
	svc := newTestPreferences(t, nil)

	prefs, err := svc.Dismiss(ctx, "sess", "cookie-banner")
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if !prefs.Dismissals["cookie-banner"] {
		t.Fatal("expected dismissal recorded")
	}

	prefs, err = svc.Dismiss(ctx, "sess", "cookie-banner")
	if err != nil {
		t.Fatalf("repeat dismiss: %v", err)
	}
	if len(prefs.Dismissals) != 1 {
		t.Fatalf("expected single dismissal, got %v", prefs.Dismissals)
	}
}

func TestPreferencesPersistAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	first := newTestPreferences(t, store)
	first.SetTheme(ctx, "sess", domain.ThemeIdea)
	first.Dismiss(ctx, "sess", "promo")

	second := newTestPreferences(t, store)
	prefs, err := second.Preferences(ctx, "sess")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if prefs.Theme != domain.ThemeIdea || !prefs.Dismissals["promo"] {
		t.Fatalf("expected restored preferences, got %+v", prefs)
	}
}

func TestPreferencesFallBackOnInvalidSavedTheme(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	saved, _ := json.Marshal(domain.Preferences{Theme: "midnight"})
	store.Set(ctx, "safi_prefs:sess", kvstore.Blob{Data: saved, SavedAt: time.Now().UTC()})

	svc := newTestPreferences(t, store)
	prefs, err := svc.Preferences(ctx, "sess")
	if err != nil {
		t.Fatalf("preferences: %v", err)
	}
	if prefs.Theme != domain.ThemeDark {
		t.Fatalf("expected fallback to dark, got %q", prefs.Theme)
	}
}
