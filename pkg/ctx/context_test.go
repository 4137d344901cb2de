package ctx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatshop/storefront/pkg/auth"
	appctx "github.com/hayatshop/storefront/pkg/ctx"
	"github.com/hayatshop/storefront/pkg/response"
)

func TestWrapAndOK(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		c.OK(response.Fields{"stockUpdated": true})
		assert.Equal(t, http.StatusOK, c.WrittenStatus())
	})(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"stockUpdated":true}`, rec.Body.String())
}

func TestQueryHelpers(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?min=99.5&page=x&sale=true&sizes=M,+L,,&q=+dress+", nil)
	appctx.Wrap(func(c *appctx.Context) {
		require.NotNil(t, c.QueryFloat("min"))
		assert.Equal(t, 99.5, *c.QueryFloat("min"))
		assert.Nil(t, c.QueryFloat("max"))
		assert.Equal(t, 1, c.QueryInt("page", 1))
		assert.True(t, c.QueryBool("sale"))
		assert.False(t, c.QueryBool("inStock"))
		assert.Equal(t, []string{"M", "L"}, c.QueryList("sizes"))
		assert.Nil(t, c.QueryList("colors"))
		assert.Equal(t, "dress", c.Query("q"))
	})(rec, req)
}

func TestBindJSON(t *testing.T) {
	type input struct {
		Status string `json:"status" validate:"required"`
	}

	cases := []struct {
		name string
		body string
		ok   bool
		code int
	}{
		{"valid", `{"status":"paid"}`, true, 0},
		{"malformed", `{"status":`, false, http.StatusBadRequest},
		{"invalid", `{}`, false, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			appctx.Wrap(func(c *appctx.Context) {
				var in input
				assert.Equal(t, tc.ok, c.BindJSON(&in))
			})(rec, req)
			if !tc.ok {
				assert.Equal(t, tc.code, rec.Code)
			}
		})
	}
}

func TestClaims(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		assert.Empty(t, c.UserID())
	})(rec, req)

	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{UserID: "u1", Email: "noa@example.com"}))
	appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, "u1", c.UserID())
	})(rec, req)
}
