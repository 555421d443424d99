package handlers

import (
	"net/http"
	"time"

	"github.com/acquisitions/apiserver/internal/auth"
	"github.com/acquisitions/apiserver/internal/logging"
	"github.com/acquisitions/apiserver/types"
)

// TokenCookie is the cookie that carries the access token.
const TokenCookie = "token"

// RequireAuth verifies the token cookie and attaches the caller's identity
// to the request context.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(TokenCookie)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w, "Access token is required")
				return
			}

			identity, err := tokens.Verify(cookie.Value)
			if err != nil {
				logging.FromContext(r.Context()).Warn("token verification failed", "err", err)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := auth.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role is not in roles.
func RequireRole(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeUnauthorized(w, "Authentication required")
				return
			}
			if !auth.HasRole(identity, roles...) {
				logging.FromContext(r.Context()).Warn("role check failed",
					"user_id", identity.ID,
					"role", identity.Role,
				)
				writeForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identityFrom(w http.ResponseWriter, r *http.Request) (types.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Authentication required")
	}
	return identity, ok
}

func setTokenCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
