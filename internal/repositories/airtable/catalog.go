// Package airtable fetches the product catalog from an Airtable base. Any
// failure is reported as repositories.ErrSourceUnavailable so callers fall
// back to the local data set; the end user never sees the difference.
package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/safi-group/api/internal/domain"
	"github.com/safi-group/api/internal/repositories"
)

const (
	defaultBaseURL       = "https://api.airtable.com/v0"
	defaultCacheDuration = 5 * time.Minute
	maxResponseBytes     = 4 << 20
)

var slugSeparators = regexp.MustCompile(`\s+`)

// categoryIDs maps remote category display names to internal identifiers.
// Unrecognized names fall back to a deterministic slug of the display name.
var categoryIDs = map[string]string{
	"تصميم الهوية":    "identity-design",
	"Identity Design": "identity-design",
	"اللافتات":        "signage",
	"Signage":         "signage",
	"الطباعة":         "printing",
	"Printing":        "printing",
	"الهدايا":         "gifts",
	"اللوحات":         "boards",
	"رول أب":          "rollup",
	"المعارض":         "exhibitions",
	"الإضاءة":         "illuminated",
}

var categoryIcons = map[string]string{
	"identity-design": "palette",
	"signage":         "sign",
	"printing":        "printer",
	"gifts":           "gift",
	"boards":          "board",
	"rollup":          "rollup",
	"exhibitions":     "building",
	"illuminated":     "bulb",
}

// HTTPDoer abstracts the HTTP client for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config carries the credentials and table coordinates for one base.
type Config struct {
	BaseURL string
	Token   string
	BaseID  string
	TableID string
	// CacheTTL bounds how long a fetched product list is reused. Zero keeps
	// the default of five minutes.
	CacheTTL time.Duration
}

// Source fetches and caches the remote product list.
type Source struct {
	cfg           Config
	client        HTTPDoer
	logger        *zap.Logger
	clock         func() time.Time
	cacheDuration time.Duration

	mu        sync.Mutex
	cached    []domain.Product
	fetchedAt time.Time
}

// NewSource constructs a remote catalog source. The token and base must be
// set; table defaults are not assumed.
func NewSource(cfg Config, client HTTPDoer, logger *zap.Logger, clock func() time.Time) (*Source, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("airtable: token is required")
	}
	if strings.TrimSpace(cfg.BaseID) == "" {
		return nil, errors.New("airtable: base id is required")
	}
	if strings.TrimSpace(cfg.TableID) == "" {
		return nil, errors.New("airtable: table id is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &Source{
		cfg:           cfg,
		client:        client,
		logger:        logger,
		clock:         clock,
		cacheDuration: ttl,
	}, nil
}

type recordPayload struct {
	ID     string `json:"id"`
	Fields struct {
		Name          string  `json:"Name"`
		Price         float64 `json:"Price"`
		OriginalPrice float64 `json:"OriginalPrice"`
		Category      string  `json:"Category"`
		Description   string  `json:"Description"`
		Image         []struct {
			URL string `json:"url"`
		} `json:"Image"`
		Tag      string  `json:"Tag"`
		InStock  *bool   `json:"InStock"`
		Rating   float64 `json:"Rating"`
		Features string  `json:"Features"`
	} `json:"fields"`
}

type listPayload struct {
	Records []recordPayload `json:"records"`
}

// FetchProducts returns the remote product list, serving the in-memory cache
// while it is fresh. Every failure mode collapses into ErrSourceUnavailable.
func (s *Source) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	now := s.clock()

	s.mu.Lock()
	if s.cached != nil && now.Sub(s.fetchedAt) < s.cacheDuration {
		cached := append([]domain.Product(nil), s.cached...)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	products, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("airtable fetch failed", zap.Error(err))
		return nil, repositories.ErrSourceUnavailable
	}

	s.mu.Lock()
	s.cached = products
	s.fetchedAt = now
	s.mu.Unlock()

	return append([]domain.Product(nil), products...), nil
}

// ClearCache drops the in-memory cache so the next fetch goes to the network.
func (s *Source) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.fetchedAt = time.Time{}
}

func (s *Source) fetch(ctx context.Context) ([]domain.Product, error) {
	endpoint := fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(s.cfg.BaseURL, "/"),
		url.PathEscape(s.cfg.BaseID),
		url.PathEscape(s.cfg.TableID),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("airtable: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	var payload listPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("airtable: malformed payload: %w", err)
	}
	if payload.Records == nil {
		return nil, errors.New("airtable: payload missing records")
	}

	products := make([]domain.Product, 0, len(payload.Records))
	for i, record := range payload.Records {
		products = append(products, mapRecord(record, i))
	}
	return products, nil
}

func mapRecord(record recordPayload, index int) domain.Product {
	fields := record.Fields

	id := strings.TrimSpace(record.ID)
	if id == "" {
		id = fmt.Sprintf("product-%d", index+1)
	}

	name := strings.TrimSpace(fields.Name)
	if name == "" {
		name = "منتج بدون اسم"
	}

	description := strings.TrimSpace(fields.Description)
	if description == "" {
		description = "لا يوجد وصف متاح"
	}

	categoryName := strings.TrimSpace(fields.Category)
	if categoryName == "" {
		categoryName = "غير مصنف"
	}
	categoryID := CategoryID(categoryName)

	var image string
	if len(fields.Image) > 0 {
		image = strings.TrimSpace(fields.Image[0].URL)
	}

	var oldPrice *int
	if fields.OriginalPrice > 0 {
		v := int(fields.OriginalPrice)
		oldPrice = &v
	}

	rating := fields.Rating
	if rating == 0 {
		rating = 5
	}

	var features []string
	for _, line := range strings.Split(fields.Features, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			features = append(features, trimmed)
		}
	}

	// InStock defaults to true when the field is absent.
	inStock := fields.InStock == nil || *fields.InStock

	return domain.Product{
		ID:           id,
		Name:         name,
		Description:  description,
		Price:        int(fields.Price),
		OldPrice:     oldPrice,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		Icon:         categoryIcons[categoryID],
		Image:        image,
		Badge:        strings.TrimSpace(fields.Tag),
		InStock:      inStock,
		Rating:       rating,
		Features:     features,
	}
}

// CategoryID resolves a remote category display name to an internal
// identifier, slugifying unrecognized names deterministically.
func CategoryID(categoryName string) string {
	name := strings.TrimSpace(categoryName)
	if id, ok := categoryIDs[name]; ok {
		return id
	}
	slug := strings.ToLower(name)
	slug = slugSeparators.ReplaceAllString(slug, "-")
	return slug
}
