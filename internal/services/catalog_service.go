package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/safi-group/api/internal/domain"
	"github.com/safi-group/api/internal/repositories"
)

var (
	// ErrCatalogRepositoryMissing indicates the repository dependency is absent.
	ErrCatalogRepositoryMissing = errors.New("catalog service: repository is not configured")
	// ErrCatalogUnknownCategory indicates a count was requested for a category that does not exist.
	ErrCatalogUnknownCategory = errors.New("catalog service: unknown category")
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Local  repositories.CatalogRepository
	Remote repositories.RemoteCatalogSource
	Logger func(context.Context, string, map[string]any)
	Clock  func() time.Time
}

type catalogService struct {
	local  repositories.CatalogRepository
	remote repositories.RemoteCatalogSource
	logger func(context.Context, string, map[string]any)
	clock  func() time.Time
}

// NewCatalogService constructs the catalog service with the supplied
// dependencies. The remote source is optional; when absent or unavailable the
// local repository serves every read.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Local == nil {
		return nil, ErrCatalogRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		local:  deps.Local,
		remote: deps.Remote,
		logger: logger,
		clock:  func() time.Time { return clock().UTC() },
	}, nil
}

// Products returns the remote product list when available, falling back to
// the local data set on any remote failure. The fallback is silent to the
// caller beyond a log line.
func (s *catalogService) Products(ctx context.Context) ([]domain.Product, error) {
	if s.remote != nil {
		products, err := s.remote.FetchProducts(ctx)
		if err == nil && len(products) > 0 {
			return products, nil
		}
		if err != nil && !errors.Is(err, repositories.ErrSourceUnavailable) {
			s.logger(ctx, "catalog.remote_fetch_failed", map[string]any{"error": err.Error()})
		}
	}
	return s.local.Products(ctx)
}

func (s *catalogService) FilteredProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return FilterProducts(products, filter), nil
}

func (s *catalogService) Categories(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.local.Categories(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(categories))
	for _, product := range products {
		counts[product.CategoryID]++
	}

	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		count := counts[category.ID]
		if category.ID == domain.CategoryAll {
			count = len(products)
		}
		views = append(views, CategoryView{Category: category, Count: count})
	}
	return views, nil
}

func (s *catalogService) CategoryCount(ctx context.Context, categoryID string) (int, error) {
	categoryID = strings.TrimSpace(categoryID)
	products, err := s.Products(ctx)
	if err != nil {
		return 0, err
	}
	if categoryID == domain.CategoryAll {
		return len(products), nil
	}

	categories, err := s.local.Categories(ctx)
	if err != nil {
		return 0, err
	}
	known := false
	for _, category := range categories {
		if category.ID == categoryID {
			known = true
			break
		}
	}
	if !known {
		return 0, ErrCatalogUnknownCategory
	}

	count := 0
	for _, product := range products {
		if product.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (s *catalogService) Portfolio(ctx context.Context) ([]domain.PortfolioItem, error) {
	return s.local.Portfolio(ctx)
}

// InvalidateRemote drops the remote source's cache so the next read refetches.
func (s *catalogService) InvalidateRemote() {
	if s.remote != nil {
		s.remote.ClearCache()
	}
}

// FilterProducts applies category, search and sort to a product list. The
// function is pure and stable: ties keep their original relative order and
// the input slice is never mutated.
func FilterProducts(products []domain.Product, filter ProductFilter) []domain.Product {
	category := strings.TrimSpace(filter.Category)
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	result := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if category != "" && category != domain.CategoryAll && product.CategoryID != category {
			continue
		}
		if query != "" && !productMatchesQuery(product, query) {
			continue
		}
		result = append(result, product)
	}

	switch filter.Sort {
	case domain.SortPriceAsc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price < result[j].Price })
	case domain.SortPriceDesc:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price > result[j].Price })
	case domain.SortName:
		collator := collate.New(language.Arabic)
		sort.SliceStable(result, func(i, j int) bool {
			return collator.CompareString(result[i].Name, result[j].Name) < 0
		})
	}
	return result
}

func productMatchesQuery(product domain.Product, query string) bool {
	if strings.Contains(strings.ToLower(product.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(product.Description), query) {
		return true
	}
	return strings.Contains(strings.ToLower(product.CategoryName), query)
}
