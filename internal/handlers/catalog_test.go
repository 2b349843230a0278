package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/safi-group/api/internal/domain"
	"github.com/safi-group/api/internal/services"
)

type stubCatalogService struct {
	products    []domain.Product
	categories  []services.CategoryView
	portfolio   []domain.PortfolioItem
	count       int
	err         error
	filter      services.ProductFilter
	invalidated bool
}

func (s *stubCatalogService) Products(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalogService) FilteredProducts(_ context.Context, filter services.ProductFilter) ([]domain.Product, error) {
	s.filter = filter
	return s.products, s.err
}

func (s *stubCatalogService) Categories(context.Context) ([]services.CategoryView, error) {
	return s.categories, s.err
}

func (s *stubCatalogService) CategoryCount(context.Context, string) (int, error) {
	return s.count, s.err
}

func (s *stubCatalogService) Portfolio(context.Context) ([]domain.PortfolioItem, error) {
	return s.portfolio, s.err
}

func (s *stubCatalogService) InvalidateRemote() { s.invalidated = true }

func catalogRouter(svc services.CatalogService) chi.Router {
	return NewRouter(WithCatalogRoutes(NewCatalogHandlers(svc).Routes))
}

func TestListProductsParsesFilter(t *testing.T) {
	stub := &stubCatalogService{products: []domain.Product{
		{ID: "neon-sm", Name: "لوحة نيون صغيرة", Price: 350},
	}}
	r := catalogRouter(stub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?category=neon&q=نيون&sort=price-asc", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.filter.Category != "neon" || stub.filter.Query != "نيون" || stub.filter.Sort != domain.SortPriceAsc {
		t.Fatalf("unexpected filter %+v", stub.filter)
	}
	payload := decodeEnvelope(t, rec)
	if payload["count"] != float64(1) {
		t.Fatalf("unexpected count %v", payload["count"])
	}
}

func TestListProductsUnknownSortFallsBack(t *testing.T) {
	stub := &stubCatalogService{}
	r := catalogRouter(stub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?sort=wat", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.filter.Sort != domain.SortDefault {
		t.Fatalf("expected default sort, got %q", stub.filter.Sort)
	}
}

func TestListCategoriesPayload(t *testing.T) {
	stub := &stubCatalogService{categories: []services.CategoryView{
		{Category: domain.Category{ID: "all", Name: "الكل"}, Count: 14},
		{Category: domain.Category{ID: "neon", Name: "نيون", Icon: "bulb"}, Count: 2},
	}}
	r := catalogRouter(stub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/categories", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	payload := decodeEnvelope(t, rec)
	categories, ok := payload["categories"].([]any)
	if !ok || len(categories) != 2 {
		t.Fatalf("unexpected categories %v", payload["categories"])
	}
	first := categories[0].(map[string]any)
	if first["id"] != "all" || first["count"] != float64(14) {
		t.Fatalf("unexpected category %v", first)
	}
}

func TestCategoryCountUnknown(t *testing.T) {
	r := catalogRouter(&stubCatalogService{err: services.ErrCatalogUnknownCategory})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/categories/nope/count", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if payload := decodeEnvelope(t, rec); payload["error"] != "category_not_found" {
		t.Fatalf("unexpected error code %v", payload["error"])
	}
}

func TestRefreshInvalidatesRemote(t *testing.T) {
	stub := &stubCatalogService{}
	r := catalogRouter(stub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if !stub.invalidated {
		t.Fatal("expected remote cache invalidated")
	}
}
