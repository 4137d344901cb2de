// Package rbac guards routes by who the authenticated caller is.
package rbac

import (
	"net/http"

	"github.com/hayatshop/storefront/pkg/auth"
	"github.com/hayatshop/storefront/pkg/logger"
	"github.com/hayatshop/storefront/pkg/response"
)

// Policy is satisfied by auth.AdminPolicy.
type Policy interface {
	IsAdmin(email string) bool
}

// RequireAdmin allows only callers whose email the policy accepts.
// middleware.Authenticate must run first.
func RequireAdmin(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.FromCtx(r.Context())
			if !ok {
				response.Unauthorized(w)
				return
			}
			if !policy.IsAdmin(claims.Email) {
				logger.WithCtx(r.Context()).Warn("admin access denied", "user_id", claims.UserID)
				response.Error(w, http.StatusForbidden, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
