package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safi-group/api/internal/domain"
	"github.com/safi-group/api/internal/platform/httpx"
	"github.com/safi-group/api/internal/platform/requestctx"
	"github.com/safi-group/api/internal/services"
)

// PreferenceHandlers exposes the session-scoped UI preference endpoints.
type PreferenceHandlers struct {
	prefs services.PreferenceService
}

// NewPreferenceHandlers constructs handlers backed by the preference service.
func NewPreferenceHandlers(prefs services.PreferenceService) *PreferenceHandlers {
	return &PreferenceHandlers{prefs: prefs}
}

// Routes wires the preference endpoints onto the provided router.
func (h *PreferenceHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getPreferences)
	r.Put("/theme", h.setTheme)
	r.Post("/theme/toggle", h.toggleTheme)
	r.Post("/dismissals", h.dismiss)
}

func (h *PreferenceHandlers) getPreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.prefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preferences_unavailable", "preference service is unavailable", http.StatusServiceUnavailable))
		return
	}
	prefs, err := h.prefs.Preferences(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writePreferenceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, prefs)
}

func (h *PreferenceHandlers) setTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.prefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preferences_unavailable", "preference service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	prefs, err := h.prefs.SetTheme(ctx, requestctx.SessionID(ctx), domain.Theme(req.Theme))
	if err != nil {
		h.writePreferenceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, prefs)
}

func (h *PreferenceHandlers) toggleTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.prefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preferences_unavailable", "preference service is unavailable", http.StatusServiceUnavailable))
		return
	}
	prefs, err := h.prefs.ToggleTheme(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writePreferenceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, prefs)
}

func (h *PreferenceHandlers) dismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.prefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preferences_unavailable", "preference service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	prefs, err := h.prefs.Dismiss(ctx, requestctx.SessionID(ctx), req.Key)
	if err != nil {
		h.writePreferenceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, prefs)
}

func (h *PreferenceHandlers) writePreferenceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if errors.Is(err, services.ErrPreferenceInvalidInput) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid preference input", http.StatusBadRequest))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("preferences_error", "preference operation failed", http.StatusInternalServerError))
}
