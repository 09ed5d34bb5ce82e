package middlewares

import (
	"net/http"
	"strings"

	"github.com/zzjoey/downxv/server/config"
	"github.com/zzjoey/downxv/server/user"
)

func ApplyAuthenticationByConfig(next http.Handler) http.Handler {
	if config.Instance().Authentication.RequireAuth {
		return Authenticated(next)
	}
	return next
}

// Authenticated accepts a bearer token or the login cookie.
func Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)

		if token == "" {
			if cookie, err := r.Cookie(user.TokenCookieName); err == nil {
				token = cookie.Value
			}
		}

		if token == "" || user.Verify(token) != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
