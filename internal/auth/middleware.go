package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/warden-rbac/warden/internal/shared"
)

// Middleware attaches the authenticated identity to requests carrying a
// valid bearer token. Requests without one, or with a token that no longer
// resolves, proceed anonymously; handlers and the evaluator decide what
// anonymity means for each operation.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Identify resolves the Authorization header into a context identity.
func (m Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := m.Service.ResolveIdentity(r.Context(), token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("bearer token rejected", slog.String("path", r.URL.Path))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
