package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/wolfman30/prism-crm/internal/auth"
	"github.com/wolfman30/prism-crm/internal/http/respond"
)

type contextKey string

const dashboardClaimsKey contextKey = "dashboardClaims"

// DashboardJWT requires a bearer token issued by the login endpoint.
func DashboardJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				respond.Error(w, http.StatusUnauthorized, "dashboard auth disabled")
				return
			}
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				respond.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			claims, err := auth.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.Role != auth.RoleAdmin {
				respond.Error(w, http.StatusForbidden, "insufficient role")
				return
			}
			ctx := context.WithValue(r.Context(), dashboardClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DashboardClaimsFromContext returns the token claims if present.
func DashboardClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(dashboardClaimsKey).(*auth.Claims)
	return claims, ok
}
