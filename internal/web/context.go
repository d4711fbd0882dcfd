package web

import (
	"net/http"

	"github.com/JonMunkholm/leadbook/internal/core"
)

// requestMetadata copies the client IP and User-Agent into the request
// context for service-level operation logs. RemoteAddr has already been
// rewritten by TrustedRealIP.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithIPAddress(r.Context(), r.RemoteAddr)
		ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
