package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hayatshop/storefront/pkg/auth"
)

func TestRequireAdmin(t *testing.T) {
	policy := auth.NewAdminPolicy("owner@shop.com")
	h := RequireAdmin(policy)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(c *auth.Claims) int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		if c != nil {
			req = req.WithContext(auth.WithClaims(req.Context(), c))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&auth.Claims{UserID: "u2", Email: "guest@shop.com"}))
	assert.Equal(t, http.StatusOK, serve(&auth.Claims{UserID: "u1", Email: "Owner@Shop.com"}))
}
