package auth

import (
	"errors"
	"net/http"

	autherrors "beroepsbelg/internal/auth/errors"
	apperrors "beroepsbelg/pkg/errors"
	httputil "beroepsbelg/pkg/http"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/middleware"
)

// Middleware attaches the principal to the request context. Requests without an
// Authorization header pass through anonymously; handlers decide whether that is
// enough. A header that does not verify is rejected with 403.
func Middleware(a *Authenticator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header.Get("Authorization"))
			if errors.Is(err, autherrors.ErrMissingToken) {
				next.ServeHTTP(w, r)
				return
			}

			var principal *Principal
			if err == nil {
				principal, err = a.Authenticate(r.Context(), token)
			}
			if err != nil {
				if !errors.Is(err, autherrors.ErrInvalidToken) {
					log.Error("Profile lookup failed", "path", r.URL.Path, "request_id", middleware.RequestID(r.Context()), "error", err)
					if writeErr := httputil.WriteError(w, apperrors.Unavailable("Authentication")); writeErr != nil {
						log.Error("failed to write error response", "handler", "Authenticate", "operation", "WriteError", "error", writeErr)
					}
					return
				}
				log.Warn("Rejected bearer token", "path", r.URL.Path, "request_id", middleware.RequestID(r.Context()), "error", err)
				if writeErr := httputil.WriteError(w, apperrors.Forbidden("Invalid or expired token")); writeErr != nil {
					log.Error("failed to write error response", "handler", "Authenticate", "operation", "WriteError", "error", writeErr)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// PrincipalKey keys rate limiting by profile, falling back to the client address.
func PrincipalKey(r *http.Request) string {
	if p := FromContext(r.Context()); p != nil {
		return "profile:" + p.ProfileID
	}
	return middleware.RemoteAddrKey(r)
}
