package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/safi-group/api/internal/domain"
	"github.com/safi-group/api/internal/platform/kvstore"
	"github.com/safi-group/api/internal/platform/ratelimit"
	"github.com/safi-group/api/internal/platform/whatsapp"
)

const cartKeyPrefix = "safi_cart:"

var (
	// ErrCartStoreMissing indicates the persistence dependency is absent.
	ErrCartStoreMissing = errors.New("cart service: store is not configured")
	// ErrCartCatalogMissing indicates the catalog dependency is absent.
	ErrCartCatalogMissing = errors.New("cart service: catalog is not configured")
	// ErrCartInvalidInput indicates the caller supplied invalid data.
	ErrCartInvalidInput = errors.New("cart service: invalid input")
	// ErrCartUnknownProduct indicates the product is not in the catalog.
	ErrCartUnknownProduct = errors.New("cart service: unknown product")
	// ErrCartEmpty blocks checkout on an empty cart.
	ErrCartEmpty = errors.New("cart service: cart is empty")
)

// CartServiceDeps wires the storage, catalog and messaging dependencies for
// the cart.
type CartServiceDeps struct {
	Store         kvstore.Store
	Catalog       CatalogService
	Limiter       *ratelimit.Limiter
	Events        EventRecorder
	Clock         func() time.Time
	BusinessPhone string
	BrandName     string
}

type cartService struct {
	store   kvstore.Store
	catalog CatalogService
	limiter *ratelimit.Limiter
	events  EventRecorder
	clock   func() time.Time
	phone   string
	brand   string

	mu    sync.Mutex
	carts map[string]*domain.CartState
}

// NewCartService constructs the per-session cart manager.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Store == nil {
		return nil, ErrCartStoreMissing
	}
	if deps.Catalog == nil {
		return nil, ErrCartCatalogMissing
	}
	if strings.TrimSpace(deps.BusinessPhone) == "" {
		return nil, fmt.Errorf("cart service: business phone is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	events := deps.Events
	if events == nil {
		events = NopRecorder{}
	}
	return &cartService{
		store:   deps.Store,
		catalog: deps.Catalog,
		limiter: deps.Limiter,
		events:  events,
		clock:   func() time.Time { return clock().UTC() },
		phone:   strings.TrimSpace(deps.BusinessPhone),
		brand:   strings.TrimSpace(deps.BrandName),
		carts:   make(map[string]*domain.CartState),
	}, nil
}

func (s *cartService) Cart(ctx context.Context, sessionID string) (CartView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CartView{}, ErrCartInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.stateLocked(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return s.viewLocked(ctx, state)
}

func (s *cartService) Add(ctx context.Context, sessionID, productID string) (CartView, error) {
	sessionID = strings.TrimSpace(sessionID)
	productID = strings.TrimSpace(productID)
	if sessionID == "" || productID == "" {
		return CartView{}, ErrCartInvalidInput
	}

	product, err := s.lookupProduct(ctx, productID)
	if err != nil {
		return CartView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.stateLocked(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}

	// Adding an already-present product keeps its quantity unchanged.
	if findEntry(state, productID) == nil {
		state.Entries = append(state.Entries, domain.CartEntry{
			ProductID: productID,
			Quantity:  domain.CartQuantityMin,
		})
		s.persistLocked(ctx, sessionID, state)
		s.events.Record(ctx, Event{
			Name:       "cart_item_added",
			OccurredAt: s.clock(),
			Metadata:   map[string]any{"productId": product.ID, "productName": product.Name},
		})
	}
	return s.viewLocked(ctx, state)
}

func (s *cartService) Remove(ctx context.Context, sessionID, productID string) (CartView, error) {
	sessionID = strings.TrimSpace(sessionID)
	productID = strings.TrimSpace(productID)
	if sessionID == "" || productID == "" {
		return CartView{}, ErrCartInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.stateLocked(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}

	kept := state.Entries[:0]
	removed := false
	for _, entry := range state.Entries {
		if entry.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	state.Entries = kept
	if removed {
		s.persistLocked(ctx, sessionID, state)
		s.events.Record(ctx, Event{
			Name:       "cart_item_removed",
			OccurredAt: s.clock(),
			Metadata:   map[string]any{"productId": productID},
		})
	}
	return s.viewLocked(ctx, state)
}

func (s *cartService) AdjustQuantity(ctx context.Context, sessionID, productID string, delta int) (CartView, error) {
	sessionID = strings.TrimSpace(sessionID)
	productID = strings.TrimSpace(productID)
	if sessionID == "" || productID == "" {
		return CartView{}, ErrCartInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.stateLocked(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}

	entry := findEntry(state, productID)
	if entry == nil {
		return CartView{}, ErrCartUnknownProduct
	}
	next := entry.Quantity + delta
	if next < domain.CartQuantityMin {
		next = domain.CartQuantityMin
	}
	if next > domain.CartQuantityMax {
		next = domain.CartQuantityMax
	}
	if next != entry.Quantity {
		entry.Quantity = next
		s.persistLocked(ctx, sessionID, state)
	}
	return s.viewLocked(ctx, state)
}

func (s *cartService) Clear(ctx context.Context, sessionID string) (CartView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CartView{}, ErrCartInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &domain.CartState{}
	s.carts[sessionID] = state
	s.persistLocked(ctx, sessionID, state)
	s.events.Record(ctx, Event{Name: "cart_cleared", OccurredAt: s.clock()})
	return s.viewLocked(ctx, state)
}

func (s *cartService) CheckoutMessage(ctx context.Context, sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrCartInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.stateLocked(ctx, sessionID)
	if err != nil {
		return "", err
	}
	view, err := s.viewLocked(ctx, state)
	if err != nil {
		return "", err
	}
	if len(view.Lines) == 0 {
		return "", ErrCartEmpty
	}
	return buildCheckoutMessage(s.brand, view), nil
}

// Checkout builds the order handoff link. The cart is intentionally left
// intact so an abandoned conversation can be resumed.
func (s *cartService) Checkout(ctx context.Context, sessionID string) (CheckoutResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CheckoutResult{}, ErrCartInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.stateLocked(ctx, sessionID)
	if err != nil {
		return CheckoutResult{}, err
	}
	view, err := s.viewLocked(ctx, state)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(view.Lines) == 0 {
		return CheckoutResult{}, ErrCartEmpty
	}

	if s.limiter != nil {
		if decision := s.limiter.Allow(sessionID); !decision.Allowed {
			return CheckoutResult{}, &RateLimitedError{RetryAfter: decision.RetryAfter}
		}
	}

	message := buildCheckoutMessage(s.brand, view)
	link, err := whatsapp.BuildURL(s.phone, message)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("cart service: %w", err)
	}

	items := make([]map[string]any, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, map[string]any{"name": line.Product.Name, "qty": line.Quantity})
	}
	s.events.Record(ctx, Event{
		Name:       "checkout_initiated",
		OccurredAt: s.clock(),
		Metadata: map[string]any{
			"itemCount":  len(view.Lines),
			"totalItems": view.ItemCount,
			"total":      view.Total,
			"items":      items,
		},
	})

	return CheckoutResult{
		Link:      link,
		Message:   message,
		Total:     view.Total,
		ItemCount: view.ItemCount,
	}, nil
}

func findEntry(state *domain.CartState, productID string) *domain.CartEntry {
	for i := range state.Entries {
		if state.Entries[i].ProductID == productID {
			return &state.Entries[i]
		}
	}
	return nil
}

func (s *cartService) lookupProduct(ctx context.Context, productID string) (domain.Product, error) {
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return domain.Product{}, fmt.Errorf("cart service: load catalog: %w", err)
	}
	for _, product := range products {
		if product.ID == productID {
			return product, nil
		}
	}
	return domain.Product{}, ErrCartUnknownProduct
}

// stateLocked returns the in-memory cart, loading persisted state on first
// access. A corrupt saved cart starts empty.
func (s *cartService) stateLocked(ctx context.Context, sessionID string) (*domain.CartState, error) {
	if state, ok := s.carts[sessionID]; ok {
		return state, nil
	}
	state := &domain.CartState{}
	if blob, ok := s.store.Get(ctx, cartKeyPrefix+sessionID); ok {
		var saved domain.CartState
		if err := json.Unmarshal(blob.Data, &saved); err == nil {
			state = &saved
			s.normalizeLocked(ctx, state)
		}
	}
	s.carts[sessionID] = state
	return state, nil
}

// normalizeLocked drops entries whose product no longer exists and clamps
// quantities into range. Catalog failures skip the existence check.
func (s *cartService) normalizeLocked(ctx context.Context, state *domain.CartState) {
	known := map[string]bool{}
	products, err := s.catalog.Products(ctx)
	if err == nil {
		for _, product := range products {
			known[product.ID] = true
		}
	}

	kept := state.Entries[:0]
	for _, entry := range state.Entries {
		if err == nil && !known[entry.ProductID] {
			continue
		}
		if entry.Quantity < domain.CartQuantityMin {
			entry.Quantity = domain.CartQuantityMin
		}
		if entry.Quantity > domain.CartQuantityMax {
			entry.Quantity = domain.CartQuantityMax
		}
		kept = append(kept, entry)
	}
	state.Entries = kept
}

func (s *cartService) persistLocked(ctx context.Context, sessionID string, state *domain.CartState) {
	now := s.clock()
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	s.store.Set(ctx, cartKeyPrefix+sessionID, kvstore.Blob{Data: data, SavedAt: now})
}

func (s *cartService) viewLocked(ctx context.Context, state *domain.CartState) (CartView, error) {
	products, err := s.catalog.Products(ctx)
	if err != nil {
		return CartView{}, fmt.Errorf("cart service: load catalog: %w", err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	view := CartView{}
	for _, entry := range state.Entries {
		product, ok := byID[entry.ProductID]
		if !ok {
			continue
		}
		line := CartLine{
			Product:  product,
			Quantity: entry.Quantity,
			Subtotal: product.Price * entry.Quantity,
		}
		view.Lines = append(view.Lines, line)
		view.Total += line.Subtotal
		view.ItemCount += line.Quantity
	}
	return view, nil
}

func buildCheckoutMessage(brand string, view CartView) string {
	const divider = "═══════════════════════"
	lines := []string{
		fmt.Sprintf("🛒 *طلب جديد من %s*", brand),
		divider,
		"",
		"*📦 المنتجات:*",
		"",
	}
	for i, line := range view.Lines {
		lines = append(lines, fmt.Sprintf("%d. *%s*\n   الكمية: %d | السعر: %d ر.س", i+1, line.Product.Name, line.Quantity, line.Subtotal))
	}
	lines = append(lines,
		"",
		divider,
		fmt.Sprintf("*💰 الإجمالي: %d ر.س*", view.Total),
		"",
		divider,
		"",
		"*📝 بيانات العميل:*",
		"• الاسم: ",
		"• رقم الجوال: ",
		"• المدينة: ",
		"• العنوان: ",
		"",
		"*💬 ملاحظات إضافية:*",
		"",
	)
	return strings.Join(lines, "\n")
}
