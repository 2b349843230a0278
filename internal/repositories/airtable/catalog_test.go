package airtable

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/safi-group/api/internal/repositories"
)

type stubDoer struct {
	status   int
	body     string
	err      error
	requests []*http.Request
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

func testConfig() Config {
	return Config{Token: "key", BaseID: "appBase", TableID: "tblProducts"}
}

const recordsBody = `{"records":[
	{"id":"rec1","fields":{"Name":"لوحة نيون","Price":350,"OriginalPrice":420,"Category":"الإضاءة","Description":"نيون مخصص","Image":[{"url":"https://img.example/neon.png"}],"Tag":"جديد","Rating":4.5,"Features":"إضاءة LED\nضمان سنة\n"}},
	{"id":"rec2","fields":{"Price":95,"Category":"Custom Stickers","InStock":false}}
]}`

func TestFetchProductsMapsRecords(t *testing.T) {
	ctx := context.Background()
	doer := &stubDoer{status: http.StatusOK, body: recordsBody}
	source, err := NewSource(testConfig(), doer, nil, nil)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	products, err := source.FetchProducts(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	first := products[0]
	if first.ID != "rec1" || first.Name != "لوحة نيون" || first.Price != 350 {
		t.Fatalf("unexpected first product: %+v", first)
	}
	if first.OldPrice == nil || *first.OldPrice != 420 {
		t.Fatalf("expected old price 420, got %v", first.OldPrice)
	}
	if first.CategoryID != "illuminated" || first.Icon != "bulb" {
		t.Fatalf("unexpected category mapping: %q/%q", first.CategoryID, first.Icon)
	}
	if first.Image != "https://img.example/neon.png" || first.Badge != "جديد" {
		t.Fatalf("unexpected media fields: %+v", first)
	}
	if !first.InStock || first.Rating != 4.5 {
		t.Fatalf("unexpected stock/rating: %+v", first)
	}
	if len(first.Features) != 2 || first.Features[0] != "إضاءة LED" {
		t.Fatalf("unexpected features: %v", first.Features)
	}

	second := products[1]
	if second.Name != "منتج بدون اسم" || second.Description != "لا يوجد وصف متاح" {
		t.Fatalf("expected placeholder name/description, got %+v", second)
	}
	if second.CategoryID != "custom-stickers" {
		t.Fatalf("expected slugged category, got %q", second.CategoryID)
	}
	if second.InStock {
		t.Fatal("explicit false must stay false")
	}
	if second.Rating != 5 {
		t.Fatalf("expected default rating 5, got %v", second.Rating)
	}

	req := doer.requests[0]
	if req.URL.String() != "https://api.airtable.com/v0/appBase/tblProducts" {
		t.Fatalf("unexpected endpoint %q", req.URL)
	}
	if req.Header.Get("Authorization") != "Bearer key" {
		t.Fatalf("missing auth header")
	}
}

func TestFetchProductsFailuresCollapse(t *testing.T) {
	ctx := context.Background()
	cases := map[string]*stubDoer{
		"transport error": {err: errors.New("dial tcp: refused")},
		"server error":    {status: http.StatusInternalServerError, body: "{}"},
		"rate limited":    {status: http.StatusTooManyRequests, body: "{}"},
		"malformed json":  {status: http.StatusOK, body: "{"},
		"missing records": {status: http.StatusOK, body: "{}"},
	}
	for name, doer := range cases {
		source, err := NewSource(testConfig(), doer, nil, nil)
		if err != nil {
			t.Fatalf("%s: new source: %v", name, err)
		}
		if _, err := source.FetchProducts(ctx); !errors.Is(err, repositories.ErrSourceUnavailable) {
			t.Fatalf("%s: expected ErrSourceUnavailable, got %v", name, err)
		}
	}
}

func TestFetchProductsServesCacheWithinTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doer := &stubDoer{status: http.StatusOK, body: recordsBody}
	source, err := NewSource(testConfig(), doer, nil, func() time.Time { return now })
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	source.FetchProducts(ctx)
	now = now.Add(4 * time.Minute)
	source.FetchProducts(ctx)
	if len(doer.requests) != 1 {
		t.Fatalf("expected cache hit, saw %d requests", len(doer.requests))
	}

	now = now.Add(2 * time.Minute)
	source.FetchProducts(ctx)
	if len(doer.requests) != 2 {
		t.Fatalf("expected refetch after TTL, saw %d requests", len(doer.requests))
	}
}

func TestClearCacheForcesRefetch(t *testing.T) {
	ctx := context.Background()
	doer := &stubDoer{status: http.StatusOK, body: recordsBody}
	source, err := NewSource(testConfig(), doer, nil, nil)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	source.FetchProducts(ctx)
	source.ClearCache()
	source.FetchProducts(ctx)
	if len(doer.requests) != 2 {
		t.Fatalf("expected refetch after clear, saw %d requests", len(doer.requests))
	}
}

func TestNewSourceValidation(t *testing.T) {
	for name, cfg := range map[string]Config{
		"missing token": {BaseID: "app", TableID: "tbl"},
		"missing base":  {Token: "key", TableID: "tbl"},
		"missing table": {Token: "key", BaseID: "app"},
	} {
		if _, err := NewSource(cfg, nil, nil, nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCategoryIDSlugsUnknownNames(t *testing.T) {
	if got := CategoryID("اللافتات"); got != "signage" {
		t.Fatalf("expected signage, got %q", got)
	}
	if got := CategoryID("Laser Cut Boards"); got != "laser-cut-boards" {
		t.Fatalf("expected slug, got %q", got)
	}
}
