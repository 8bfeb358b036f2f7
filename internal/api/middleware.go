package api

import (
	"net/http"
	"net/url"

	"adminka/internal/logger"
)

// RequireSameOrigin rejects state-changing requests sent from other sites.
// The Origin header is checked, or the Referer when a browser omits it.
func RequireSameOrigin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := r.Header.Get("Origin")
		if source == "" {
			source = r.Header.Get("Referer")
		}
		u, err := url.Parse(source)
		if source == "" || err != nil || u.Host != r.Host {
			logger.Get().Warn().
				Str("origin", source).
				Str("host", r.Host).
				Str("path", r.URL.Path).
				Msg("cross-origin request rejected")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
