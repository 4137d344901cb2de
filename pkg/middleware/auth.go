package middleware

import (
	"net/http"
	"strings"

	"github.com/hayatshop/storefront/pkg/auth"
	"github.com/hayatshop/storefront/pkg/logger"
	"github.com/hayatshop/storefront/pkg/response"
)

// TokenValidator is satisfied by *auth.Tokens.
type TokenValidator interface {
	Validate(raw string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer token and stores its claims in the
// request context.
func Authenticate(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				response.Error(w, http.StatusUnauthorized, "Missing token")
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				logger.WithCtx(r.Context()).Debug("token rejected", "error", err)
				response.Error(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(h, "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}
