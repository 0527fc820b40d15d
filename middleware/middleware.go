package middleware

import (
	"context"
	"net/http"
	"strings"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/utils"
)

type contextKey string

const claimsContextKey contextKey = "authClaims"

// ClaimsFromContext returns the authenticated claims stored by Protect.
func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*utils.Claims)
	return claims, ok
}

// Protect requires a valid Bearer token and stores the claims in the
// request context for the handlers downstream.
func Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			logging.Logger.Warnf("Event ID: AUTH_BEARER_PREFIX_MISSING, Description: Bearer prefix missing in Authorization header for request to %s %s", r.Method, r.URL.Path)
		}

		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly requires that Protect already ran and the caller has the admin
// role.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}

		if claims.Role != models.RoleAdmin {
			logging.Logger.Warnf("Event ID: AUTH_ADMIN_REQUIRED, Description: User %s with role %s attempted admin route %s %s", claims.UserID, claims.Role, r.Method, r.URL.Path)
			http.Error(w, "Access forbidden: admin role required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
