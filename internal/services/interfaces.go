package services

import (
	"context"
	"fmt"
	"time"

	"github.com/safi-group/api/internal/domain"
)

// ProductFilter narrows and orders a catalog listing. Category "all" (or
// empty) passes everything; Query is a case-insensitive substring match over
// name, description and category display name; filters compose before Sort
// applies.
type ProductFilter struct {
	Category string
	Query    string
	Sort     domain.SortMode
}

// CategoryView is a category together with its product count.
type CategoryView struct {
	domain.Category
	Count int
}

// CatalogService exposes the product, category and portfolio collections and
// their derived views.
type CatalogService interface {
	Products(ctx context.Context) ([]domain.Product, error)
	FilteredProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	Categories(ctx context.Context) ([]CategoryView, error)
	CategoryCount(ctx context.Context, categoryID string) (int, error)
	Portfolio(ctx context.Context) ([]domain.PortfolioItem, error)
	InvalidateRemote()
}

// BriefOption is a selectable wizard answer with its display strings.
type BriefOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"desc,omitempty"`
}

// BriefView is the client-facing snapshot of one wizard session.
type BriefView struct {
	Step            int
	Form            domain.BriefForm
	StepError       string
	FieldErrors     map[string]string
	Touched         map[string]bool
	ResumeAvailable bool
	Matches         []domain.PortfolioItem
	Message         string
}

// BriefSubmission is the terminal result of a wizard session.
type BriefSubmission struct {
	Link    string
	Message string
}

// BriefService drives the five-step lead wizard state machine.
type BriefService interface {
	State(ctx context.Context, sessionID string) (BriefView, error)
	SetAnswer(ctx context.Context, sessionID, field, value string) (BriefView, error)
	Advance(ctx context.Context, sessionID string) (BriefView, error)
	Retreat(ctx context.Context, sessionID string) (BriefView, error)
	Reset(ctx context.Context, sessionID string) (BriefView, error)
	Submit(ctx context.Context, sessionID string) (BriefSubmission, error)
	Options() (types, budgets, timelines []BriefOption)
}

// CartLine is a resolved cart entry.
type CartLine struct {
	Product  domain.Product
	Quantity int
	Subtotal int
}

// CartView is the client-facing snapshot of one session's cart.
type CartView struct {
	Lines     []CartLine
	Total     int
	ItemCount int
}

// CheckoutResult carries the messaging handoff for a non-empty cart.
type CheckoutResult struct {
	Link      string
	Message   string
	Total     int
	ItemCount int
}

// CartService manages the per-session product selection.
type CartService interface {
	Cart(ctx context.Context, sessionID string) (CartView, error)
	Add(ctx context.Context, sessionID, productID string) (CartView, error)
	Remove(ctx context.Context, sessionID, productID string) (CartView, error)
	AdjustQuantity(ctx context.Context, sessionID, productID string, delta int) (CartView, error)
	Clear(ctx context.Context, sessionID string) (CartView, error)
	CheckoutMessage(ctx context.Context, sessionID string) (string, error)
	Checkout(ctx context.Context, sessionID string) (CheckoutResult, error)
}

// PreferenceService manages cross-cutting per-session UI state.
type PreferenceService interface {
	Preferences(ctx context.Context, sessionID string) (domain.Preferences, error)
	SetTheme(ctx context.Context, sessionID string, theme domain.Theme) (domain.Preferences, error)
	ToggleTheme(ctx context.Context, sessionID string) (domain.Preferences, error)
	Dismiss(ctx context.Context, sessionID, key string) (domain.Preferences, error)
}

// Event is a named analytics occurrence with optional metadata.
type Event struct {
	Name       string
	OccurredAt time.Time
	Metadata   map[string]any
}

// EventRecorder receives analytics events. Recording is fire-and-forget;
// implementations must not fail the triggering operation.
type EventRecorder interface {
	Record(ctx context.Context, event Event)
}

// RateLimitedError reports a denied action together with the remaining
// cooldown. It is a defined outcome, not a fault; callers inform the user and
// permit a retry after the reported interval.
type RateLimitedError struct {
	RetryAfter int
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry in %ds", e.RetryAfter)
}
