package handlers

import (
	"crypto/rand"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/safi-group/api/internal/platform/observability"
	"github.com/safi-group/api/internal/platform/requestctx"
)

// SessionHeader carries the anonymous visitor identifier. Clients echo the
// value back on every request; the server mints one when it is absent.
const SessionHeader = "X-Session-ID"

// SessionMiddleware resolves the session identifier for the request. An
// invalid or missing header gets a freshly minted ULID, returned to the
// client via the response header either way.
func SessionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
			if _, err := ulid.ParseStrict(sessionID); err != nil {
				sessionID = ulid.MustNew(ulid.Now(), rand.Reader).String()
			}

			w.Header().Set(SessionHeader, sessionID)
			ctx := requestctx.WithSessionID(r.Context(), sessionID)
			ctx = requestctx.WithLogger(ctx, observability.WithSession(requestctx.Logger(ctx), sessionID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
