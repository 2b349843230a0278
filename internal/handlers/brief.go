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

// BriefHandlers exposes the lead wizard endpoints. Every route is scoped to
// the caller's session.
type BriefHandlers struct {
	briefs services.BriefService
}

// NewBriefHandlers constructs handlers backed by the brief service.
func NewBriefHandlers(briefs services.BriefService) *BriefHandlers {
	return &BriefHandlers{briefs: briefs}
}

// Routes wires the wizard endpoints onto the provided router.
func (h *BriefHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getState)
	r.Get("/options", h.getOptions)
	r.Put("/answers", h.setAnswer)
	r.Post("/next", h.advance)
	r.Post("/back", h.retreat)
	r.Post("/reset", h.reset)
	r.Post("/submit", h.submit)
}

func (h *BriefHandlers) getState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.briefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("brief_unavailable", "brief service is unavailable", http.StatusServiceUnavailable))
		return
	}
	view, err := h.briefs.State(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writeBriefError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBriefPayload(view))
}

func (h *BriefHandlers) getOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.briefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("brief_unavailable", "brief service is unavailable", http.StatusServiceUnavailable))
		return
	}
	types, budgets, timelines := h.briefs.Options()
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"projectTypes": types,
		"budgets":      budgets,
		"timelines":    timelines,
	})
}

func (h *BriefHandlers) setAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.briefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("brief_unavailable", "brief service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	view, err := h.briefs.SetAnswer(ctx, requestctx.SessionID(ctx), req.Field, req.Value)
	if err != nil {
		h.writeBriefError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBriefPayload(view))
}

func (h *BriefHandlers) advance(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(sessionID string) (services.BriefView, error) {
		return h.briefs.Advance(r.Context(), sessionID)
	})
}

func (h *BriefHandlers) retreat(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(sessionID string) (services.BriefView, error) {
		return h.briefs.Retreat(r.Context(), sessionID)
	})
}

func (h *BriefHandlers) reset(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(sessionID string) (services.BriefView, error) {
		return h.briefs.Reset(r.Context(), sessionID)
	})
}

func (h *BriefHandlers) transition(w http.ResponseWriter, r *http.Request, op func(sessionID string) (services.BriefView, error)) {
	ctx := r.Context()
	if h.briefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("brief_unavailable", "brief service is unavailable", http.StatusServiceUnavailable))
		return
	}
	view, err := op(requestctx.SessionID(ctx))
	if err != nil {
		h.writeBriefError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBriefPayload(view))
}

func (h *BriefHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.briefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("brief_unavailable", "brief service is unavailable", http.StatusServiceUnavailable))
		return
	}

	submission, err := h.briefs.Submit(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writeBriefError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"link":    submission.Link,
		"message": submission.Message,
	})
}

func (h *BriefHandlers) writeBriefError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var limited *services.RateLimitedError
	switch {
	case errors.As(err, &limited):
		writeRateLimited(ctx, w, limited)
	case errors.Is(err, services.ErrBriefIncomplete):
		httpx.WriteError(ctx, w, httpx.NewError("brief_incomplete", "complete every step before submitting", http.StatusConflict))
	case errors.Is(err, services.ErrBriefInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid brief input", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("brief_error", "brief operation failed", http.StatusInternalServerError))
	}
}

type briefPayload struct {
	Step            int                    `json:"step"`
	TotalSteps      int                    `json:"totalSteps"`
	Form            domain.BriefForm       `json:"form"`
	StepError       string                 `json:"stepError,omitempty"`
	FieldErrors     map[string]string      `json:"fieldErrors,omitempty"`
	Touched         map[string]bool        `json:"touched,omitempty"`
	ResumeAvailable bool                   `json:"resumeAvailable"`
	Matches         []domain.PortfolioItem `json:"matches,omitempty"`
	Message         string                 `json:"message,omitempty"`
}

func buildBriefPayload(view services.BriefView) briefPayload {
	return briefPayload{
		Step:            view.Step,
		TotalSteps:      domain.BriefStepCount,
		Form:            view.Form,
		StepError:       view.StepError,
		FieldErrors:     view.FieldErrors,
		Touched:         view.Touched,
		ResumeAvailable: view.ResumeAvailable,
		Matches:         view.Matches,
		Message:         view.Message,
	}
}
