package repositories

import (
	"context"
	"errors"

	"github.com/safi-group/api/internal/domain"
)

// ErrSourceUnavailable signals that a catalog source cannot supply data right
// now (network failure, non-success status, malformed payload). Callers keep
// using whatever data they already have; this is "no data", not a fault.
var ErrSourceUnavailable = errors.New("catalog source: unavailable")

// CatalogRepository serves the product, category and portfolio collections.
type CatalogRepository interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Portfolio(ctx context.Context) ([]domain.PortfolioItem, error)
}

// RemoteCatalogSource fetches a normalized product list from a third-party
// tabular-data endpoint. Implementations cache successful fetches and expose
// an explicit invalidation hook.
type RemoteCatalogSource interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	ClearCache()
}
