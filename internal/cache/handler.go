package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RootDocumentKey is the cache key of the navigation fallback document.
const RootDocumentKey = "/"

// extPathPrefix marks a request that should be proxied to a third-party
// origin, as /ext/<host>/<path>.
const extPathPrefix = "/ext/"

// HTTPDoer issues outbound requests for the cross-origin path.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Handler serves GET traffic through the cache manager:
//
//   - navigations (HTML) go network-first, falling back to the cached root
//     document; a successful fetch overwrites that fallback entry
//   - same-origin assets are served stale-while-revalidate
//   - /ext/ requests are cache-first against the remote origin
//
// Non-GET requests pass straight through to the upstream.
type Handler struct {
	manager  *Manager
	upstream http.Handler
	client   HTTPDoer
	logger   *zap.Logger
}

// NewHandler wraps the upstream asset handler with the caching layer.
func NewHandler(manager *Manager, upstream http.Handler, client HTTPDoer, logger *zap.Logger) *Handler {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{manager: manager, upstream: upstream, client: client, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.upstream.ServeHTTP(w, r)
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, extPathPrefix):
		h.serveCrossOrigin(w, r)
	case isNavigation(r):
		h.serveNavigation(w, r)
	default:
		h.serveAsset(w, r)
	}
}

func isNavigation(r *http.Request) bool {
	if r.URL.Path == RootDocumentKey {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// serveNavigation is network-first: a live document always wins, the cached
// root document covers outages.
func (h *Handler) serveNavigation(w http.ResponseWriter, r *http.Request) {
	entry, err := h.fetchUpstream(r)
	if err == nil {
		h.manager.Put(RootDocumentKey, entry)
		writeEntry(w, entry)
		return
	}

	if cached, ok := h.manager.Get(RootDocumentKey); ok {
		writeEntry(w, cached)
		return
	}
	http.Error(w, "offline and not cached", http.StatusGatewayTimeout)
}

// serveAsset is stale-while-revalidate: a cached copy is served immediately
// and refreshed in the background.
func (h *Handler) serveAsset(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if cached, ok := h.manager.Get(key); ok {
		// The request context dies when this handler returns; the refresh
		// needs its own lifetime, and the clone must happen before then.
		clone := r.Clone(context.WithoutCancel(r.Context()))
		go h.revalidate(clone, key)
		writeEntry(w, cached)
		return
	}

	entry, err := h.fetchUpstream(r)
	if err != nil {
		http.Error(w, "offline and not cached", http.StatusGatewayTimeout)
		return
	}
	h.manager.Put(key, entry)
	writeEntry(w, entry)
}

func (h *Handler) revalidate(r *http.Request, key string) {
	entry, err := h.fetchUpstream(r)
	if err != nil {
		return
	}
	h.manager.Put(key, entry)
}

// serveCrossOrigin is cache-first: once fetched, a third-party response is
// served from the cache forever within its generation.
func (h *Handler) serveCrossOrigin(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if cached, ok := h.manager.Get(key); ok {
		writeEntry(w, cached)
		return
	}

	target, err := crossOriginURL(r.URL.Path)
	if err != nil {
		http.Error(w, "invalid external path", http.StatusBadRequest)
		return
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, "invalid external path", http.StatusBadRequest)
		return
	}
	resp, err := h.client.Do(req)
	if err != nil {
		http.Error(w, "offline and not cached", http.StatusGatewayTimeout)
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, "offline and not cached", http.StatusGatewayTimeout)
		return
	}

	entry := Entry{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: body}
	h.manager.Put(key, entry)
	writeEntry(w, entry)
}

// crossOriginURL maps /ext/<host>/<path> to https://<host>/<path>.
func crossOriginURL(path string) (string, error) {
	rest := strings.TrimPrefix(path, extPathPrefix)
	host, remainder, _ := strings.Cut(rest, "/")
	if host == "" {
		return "", fmt.Errorf("cache: missing external host in %q", path)
	}
	return "https://" + host + "/" + remainder, nil
}

// HandlerFetcher adapts an http.Handler into a FetchFunc for precaching.
func HandlerFetcher(h http.Handler) FetchFunc {
	return func(ctx context.Context, path string) (Entry, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return Entry{}, err
		}
		rec := &responseBuffer{header: make(http.Header)}
		h.ServeHTTP(rec, req)
		if rec.status >= http.StatusBadRequest {
			return Entry{}, fmt.Errorf("cache: asset %s returned %d", path, rec.status)
		}
		return Entry{StatusCode: rec.status, Header: rec.header.Clone(), Body: rec.body.Bytes()}, nil
	}
}

// fetchUpstream runs the request through the upstream handler and captures
// the response. Server errors count as fetch failures so callers fall back
// to the cache.
func (h *Handler) fetchUpstream(r *http.Request) (Entry, error) {
	rec := &responseBuffer{header: make(http.Header)}
	h.upstream.ServeHTTP(rec, r)
	if rec.status >= http.StatusInternalServerError {
		return Entry{}, fmt.Errorf("cache: upstream returned %d for %s", rec.status, r.URL.Path)
	}
	return Entry{StatusCode: rec.status, Header: rec.header.Clone(), Body: rec.body.Bytes()}, nil
}

func writeEntry(w http.ResponseWriter, entry Entry) {
	for key, values := range entry.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	status := entry.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(entry.Body)
}

// responseBuffer captures an upstream response in memory.
type responseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *responseBuffer) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}
