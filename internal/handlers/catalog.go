package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/safi-group/api/internal/domain"
	"github.com/safi-group/api/internal/platform/httpx"
	"github.com/safi-group/api/internal/services"
)

// CatalogHandlers exposes the public product, category and portfolio
// endpoints.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs handlers backed by the catalog service.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes wires the catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/categories", h.listCategories)
	r.Get("/categories/{categoryID}/count", h.categoryCount)
	r.Get("/portfolio", h.listPortfolio)
	r.Post("/refresh", h.refresh)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	filter := services.ProductFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Query:    r.URL.Query().Get("q"),
		Sort:     parseSortMode(r.URL.Query().Get("sort")),
	}

	products, err := h.catalog.FilteredProducts(ctx, filter)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to load products", http.StatusInternalServerError))
		return
	}

	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": payload, "count": len(payload)})
}

func (h *CatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to load categories", http.StatusInternalServerError))
		return
	}

	payload := make([]categoryPayload, 0, len(categories))
	for _, category := range categories {
		payload = append(payload, categoryPayload{
			ID:    category.ID,
			Name:  category.Name,
			Icon:  category.Icon,
			Count: category.Count,
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"categories": payload})
}

func (h *CatalogHandlers) categoryCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	categoryID := strings.TrimSpace(chi.URLParam(r, "categoryID"))
	count, err := h.catalog.CategoryCount(ctx, categoryID)
	if err != nil {
		if errors.Is(err, services.ErrCatalogUnknownCategory) {
			httpx.WriteError(ctx, w, httpx.NewError("category_not_found", "unknown category", http.StatusNotFound))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to count products", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"category": categoryID, "count": count})
}

func (h *CatalogHandlers) listPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	items, err := h.catalog.Portfolio(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to load portfolio", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

// refresh drops the remote catalog cache so the next read refetches.
func (h *CatalogHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}
	h.catalog.InvalidateRemote()
	writeJSONResponse(w, http.StatusAccepted, map[string]any{"status": "refreshing"})
}

// parseSortMode maps the query value onto a sort mode, falling back to the
// default order for anything unrecognised.
func parseSortMode(value string) domain.SortMode {
	switch domain.SortMode(strings.TrimSpace(strings.ToLower(value))) {
	case domain.SortPriceAsc:
		return domain.SortPriceAsc
	case domain.SortPriceDesc:
		return domain.SortPriceDesc
	case domain.SortName:
		return domain.SortName
	default:
		return domain.SortDefault
	}
}

type productPayload struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	LongDescription string   `json:"longDescription,omitempty"`
	Price           int      `json:"price"`
	OldPrice        *int     `json:"oldPrice,omitempty"`
	Category        string   `json:"category"`
	CategoryName    string   `json:"categoryName"`
	Icon            string   `json:"icon,omitempty"`
	Image           string   `json:"image,omitempty"`
	Size            string   `json:"size,omitempty"`
	Badge           string   `json:"badge,omitempty"`
	InStock         bool     `json:"inStock"`
	Rating          float64  `json:"rating"`
	Features        []string `json:"features,omitempty"`
}

type categoryPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Count int    `json:"count"`
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:              product.ID,
		Name:            product.Name,
		Description:     product.Description,
		LongDescription: product.LongDescription,
		Price:           product.Price,
		OldPrice:        product.OldPrice,
		Category:        product.CategoryID,
		CategoryName:    product.CategoryName,
		Icon:            product.Icon,
		Image:           product.Image,
		Size:            product.Size,
		Badge:           product.Badge,
		InStock:         product.InStock,
		Rating:          product.Rating,
		Features:        product.Features,
	}
}
