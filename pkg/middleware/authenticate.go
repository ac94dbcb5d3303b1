package middleware

import (
	"net/http"
	"strings"

	"pustaka/pkg/auth"
	apperrors "pustaka/pkg/errors"
	httputil "pustaka/pkg/http"
	"pustaka/pkg/logger"
)

// Authenticate resolves a bearer token into an auth.Principal on the request
// context. Requests without credentials pass through anonymously so that
// public routes and webhooks keep working; handlers decide what they need.
// A credential that is present but invalid is rejected.
func Authenticate(tokens *auth.Tokens, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				_ = httputil.WriteError(w, apperrors.Unauthorized("Malformed Authorization header"))
				return
			}

			principal, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				log.Warn("Rejected bearer token",
					"request_id", RequestIDFrom(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
