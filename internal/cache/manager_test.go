package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"
	"time"
)

func staticFetch(body string) FetchFunc {
	return func(ctx context.Context, path string) (Entry, error) {
		return Entry{StatusCode: http.StatusOK, Body: []byte(body + path)}, nil
	}
}

func TestInstallPrecachesAndBecomesCurrent(t *testing.T) {
	m := NewManager(nil, nil)

	name := m.Install(context.Background(), "v4", []string{"/", "/css/styles.css"}, staticFetch("asset:"))
	if name != "safi-pwa-v4" {
		t.Fatalf("unexpected generation name %q", name)
	}
	if m.Current() != "safi-pwa-v4" {
		t.Fatalf("expected current generation, got %q", m.Current())
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 precached entries, got %d", m.Len())
	}
	entry, ok := m.Get("/css/styles.css")
	if !ok || string(entry.Body) != "asset:/css/styles.css" {
		t.Fatalf("unexpected entry: %v %q", ok, entry.Body)
	}
}

func TestInstallSkipsFailedAssets(t *testing.T) {
	m := NewManager(nil, nil)

	fetch := func(ctx context.Context, path string) (Entry, error) {
		if path == "/broken.js" {
			return Entry{}, errors.New("not found")
		}
		return Entry{StatusCode: http.StatusOK, Body: []byte("ok")}, nil
	}
	m.Install(context.Background(), "v4", []string{"/", "/broken.js", "/app.js"}, fetch)

	if m.Len() != 2 {
		t.Fatalf("expected failed asset skipped, got %d entries", m.Len())
	}
	if _, ok := m.Get("/broken.js"); ok {
		t.Fatal("failed asset must not be cached")
	}
}

func TestActivateSweepsOldGenerations(t *testing.T) {
	m := NewManager(nil, nil)

	m.Install(context.Background(), "v3", []string{"/"}, staticFetch("old:"))
	m.Install(context.Background(), "v4", []string{"/"}, staticFetch("new:"))
	if got := m.Names(); !reflect.DeepEqual(got, []string{"safi-pwa-v3", "safi-pwa-v4"}) {
		t.Fatalf("expected both generations before activate, got %v", got)
	}

	m.Activate()
	if got := m.Names(); !reflect.DeepEqual(got, []string{"safi-pwa-v4"}) {
		t.Fatalf("expected only current generation, got %v", got)
	}
	entry, ok := m.Get("/")
	if !ok || string(entry.Body) != "new:/" {
		t.Fatalf("expected new generation content, got %v %q", ok, entry.Body)
	}
}

func TestPutStampsStoredAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(nil, func() time.Time { return now })

	m.Install(context.Background(), "v4", nil, nil)
	m.Put("/app.js", Entry{StatusCode: http.StatusOK, Body: []byte("x")})

	entry, ok := m.Get("/app.js")
	if !ok || !entry.StoredAt.Equal(now) {
		t.Fatalf("expected stored-at stamp, got %v %v", ok, entry.StoredAt)
	}
}

func TestPutBeforeInstallIsNoop(t *testing.T) {
	m := NewManager(nil, nil)
	m.Put("/app.js", Entry{StatusCode: http.StatusOK})
	if m.Len() != 0 {
		t.Fatalf("expected no entries, got %d", m.Len())
	}
	if _, ok := m.Get("/app.js"); ok {
		t.Fatal("get must miss before install")
	}
}

func TestReinstallSameVersionKeepsEntries(t *testing.T) {
	m := NewManager(nil, nil)

	m.Install(context.Background(), "v4", nil, nil)
	m.Put("/app.js", Entry{StatusCode: http.StatusOK, Body: []byte("kept")})

	var calls int
	m.Install(context.Background(), "v4", []string{"/"}, func(ctx context.Context, path string) (Entry, error) {
		calls++
		return Entry{StatusCode: http.StatusOK, Body: []byte(fmt.Sprintf("call-%d", calls))}, nil
	})

	entry, ok := m.Get("/app.js")
	if !ok || string(entry.Body) != "kept" {
		t.Fatalf("expected prior entry to survive, got %v %q", ok, entry.Body)
	}
}
