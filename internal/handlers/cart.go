package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/safi-group/api/internal/platform/httpx"
	"github.com/safi-group/api/internal/platform/requestctx"
	"github.com/safi-group/api/internal/services"
)

// CartHandlers exposes the session-scoped cart endpoints.
type CartHandlers struct {
	carts services.CartService
}

// NewCartHandlers constructs handlers backed by the cart service.
func NewCartHandlers(carts services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Routes wires the cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Delete("/items/{productID}", h.removeItem)
	r.Patch("/items/{productID}", h.adjustQuantity)
	r.Get("/checkout-message", h.checkoutMessage)
	r.Post("/checkout", h.checkout)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}
	view, err := h.carts.Cart(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartPayload(view))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}
	view, err := h.carts.Clear(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartPayload(view))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req struct {
		ProductID string `json:"productId"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	view, err := h.carts.Add(ctx, requestctx.SessionID(ctx), req.ProductID)
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartPayload(view))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	view, err := h.carts.Remove(ctx, requestctx.SessionID(ctx), productID)
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartPayload(view))
}

func (h *CartHandlers) adjustQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req struct {
		Delta int `json:"delta"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if req.Delta == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "delta must be non-zero", http.StatusBadRequest))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	view, err := h.carts.AdjustQuantity(ctx, requestctx.SessionID(ctx), productID, req.Delta)
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartPayload(view))
}

// checkoutMessage previews the order text without consuming a checkout
// attempt.
func (h *CartHandlers) checkoutMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}
	message, err := h.carts.CheckoutMessage(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"message": message})
}

func (h *CartHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}
	result, err := h.carts.Checkout(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writeCartError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"link":      result.Link,
		"message":   result.Message,
		"total":     result.Total,
		"itemCount": result.ItemCount,
	})
}

func (h *CartHandlers) writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var limited *services.RateLimitedError
	switch {
	case errors.As(err, &limited):
		writeRateLimited(ctx, w, limited)
	case errors.Is(err, services.ErrCartEmpty):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusConflict))
	case errors.Is(err, services.ErrCartUnknownProduct):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "unknown product", http.StatusNotFound))
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid cart input", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "cart operation failed", http.StatusInternalServerError))
	}
}

type cartLinePayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int    `json:"subtotal"`
	Icon      string `json:"icon,omitempty"`
	Image     string `json:"image,omitempty"`
}

type cartPayload struct {
	Items     []cartLinePayload `json:"items"`
	Total     int               `json:"total"`
	ItemCount int               `json:"itemCount"`
}

func buildCartPayload(view services.CartView) cartPayload {
	payload := cartPayload{Items: make([]cartLinePayload, 0, len(view.Lines))}
	for _, line := range view.Lines {
		payload.Items = append(payload.Items, cartLinePayload{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal,
			Icon:      line.Product.Icon,
			Image:     line.Product.Image,
		})
	}
	payload.Total = view.Total
	payload.ItemCount = view.ItemCount
	return payload
}
