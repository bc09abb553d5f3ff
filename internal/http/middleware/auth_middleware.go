package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/schoolhub/school-directory-service/internal/http/response"
	"github.com/schoolhub/school-directory-service/internal/observability"
	"github.com/schoolhub/school-directory-service/internal/security"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the verified subject of a session cookie.
type Identity struct {
	Email string
}

// SessionMiddleware gates a route group on a valid session cookie. The
// client sees the same 401 for a missing, malformed, or expired token;
// only metrics and logs distinguish the cases.
func SessionMiddleware(sessions *security.SessionManager, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.GetCookie(r, cookieName)
			if raw == "" {
				observability.RecordSessionValidation(r.Context(), "missing")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			email, err := sessions.Verify(raw)
			if err != nil {
				if errors.Is(err, security.ErrSessionExpired) {
					observability.RecordSessionValidation(r.Context(), "expired")
				} else {
					observability.RecordSessionValidation(r.Context(), "invalid")
				}
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			observability.RecordSessionValidation(r.Context(), "valid")
			ctx := context.WithValue(r.Context(), identityContextKey, &Identity{Email: email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSessionMiddleware attaches the identity when the cookie verifies
// and passes the request through untouched otherwise. Used by endpoints
// that must answer for anonymous callers too.
func OptionalSessionMiddleware(sessions *security.SessionManager, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.GetCookie(r, cookieName)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			email, err := sessions.Verify(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), identityContextKey, &Identity{Email: email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	return id, ok
}
