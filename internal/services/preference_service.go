package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/safi-group/api/internal/domain"
	"github.com/safi-group/api/internal/platform/kvstore"
)

const preferencesKeyPrefix = "safi_prefs:"

var (
	// ErrPreferenceStoreMissing indicates the persistence dependency is absent.
	ErrPreferenceStoreMissing = errors.New("preference service: store is not configured")
	// ErrPreferenceInvalidInput indicates the caller supplied invalid data.
	ErrPreferenceInvalidInput = errors.New("preference service: invalid input")
)

// PreferenceServiceDeps wires the storage dependency for UI preferences.
type PreferenceServiceDeps struct {
	Store  kvstore.Store
	Events EventRecorder
	Clock  func() time.Time
}

type preferenceService struct {
	store  kvstore.Store
	events EventRecorder
	clock  func() time.Time

	mu    sync.Mutex
	prefs map[string]*domain.Preferences
}

// NewPreferenceService constructs the per-session preference manager.
func NewPreferenceService(deps PreferenceServiceDeps) (PreferenceService, error) {
	if deps.Store == nil {
		return nil, ErrPreferenceStoreMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	events := deps.Events
	if events == nil {
		events = NopRecorder{}
	}
	return &preferenceService{
		store:  deps.Store,
		events: events,
		clock:  func() time.Time { return clock().UTC() },
		prefs:  make(map[string]*domain.Preferences),
	}, nil
}

func (s *preferenceService) Preferences(ctx context.Context, sessionID string) (domain.Preferences, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Preferences{}, ErrPreferenceInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.stateLocked(ctx, sessionID), nil
}

func (s *preferenceService) SetTheme(ctx context.Context, sessionID string, theme domain.Theme) (domain.Preferences, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Preferences{}, ErrPreferenceInvalidInput
	}
	if theme != domain.ThemeDark && theme != domain.ThemeIdea {
		return domain.Preferences{}, ErrPreferenceInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.stateLocked(ctx, sessionID)
	if prefs.Theme != theme {
		prefs.Theme = theme
		s.persistLocked(ctx, sessionID, prefs)
		s.events.Record(ctx, Event{
			Name:       "theme_changed",
			OccurredAt: s.clock(),
			Metadata:   map[string]any{"theme": string(theme)},
		})
	}
	return *prefs, nil
}

func (s *preferenceService) ToggleTheme(ctx context.Context, sessionID string) (domain.Preferences, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Preferences{}, ErrPreferenceInvalidInput
	}
	s.mu.Lock()
	next := domain.ThemeIdea
	if prefs := s.stateLocked(ctx, sessionID); prefs.Theme == domain.ThemeIdea {
		next = domain.ThemeDark
	}
	s.mu.Unlock()
	return s.SetTheme(ctx, sessionID, next)
}

// Dismiss marks a one-time UI surface (banner, hint) as dismissed for the
// session.
func (s *preferenceService) Dismiss(ctx context.Context, sessionID, key string) (domain.Preferences, error) {
	sessionID = strings.TrimSpace(sessionID)
	key = strings.TrimSpace(key)
	if sessionID == "" || key == "" {
		return domain.Preferences{}, ErrPreferenceInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.stateLocked(ctx, sessionID)
	if !prefs.Dismissals[key] {
		if prefs.Dismissals == nil {
			prefs.Dismissals = make(map[string]bool)
		}
		prefs.Dismissals[key] = true
		s.persistLocked(ctx, sessionID, prefs)
	}
	return *prefs, nil
}

func (s *preferenceService) stateLocked(ctx context.Context, sessionID string) *domain.Preferences {
	if prefs, ok := s.prefs[sessionID]; ok {
		return prefs
	}
	prefs := &domain.Preferences{Theme: domain.ThemeDark}
	if blob, ok := s.store.Get(ctx, preferencesKeyPrefix+sessionID); ok {
		var saved domain.Preferences
		if err := json.Unmarshal(blob.Data, &saved); err == nil {
			if saved.Theme != domain.ThemeDark && saved.Theme != domain.ThemeIdea {
				saved.Theme = domain.ThemeDark
			}
			prefs = &saved
		}
	}
	s.prefs[sessionID] = prefs
	return prefs
}

func (s *preferenceService) persistLocked(ctx context.Context, sessionID string, prefs *domain.Preferences) {
	data, err := json.Marshal(prefs)
	if err != nil {
		return
	}
	s.store.Set(ctx, preferencesKeyPrefix+sessionID, kvstore.Blob{Data: data, SavedAt: s.clock()})
}
