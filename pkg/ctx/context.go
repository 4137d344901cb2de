// Package ctx gives storefront handlers a single request value with helpers
// for path and query parameters, body binding, the signed-in caller and the
// JSON response shapes of pkg/response.
//
//	func (c *OrderController) Show(x *ctx.Context) {
//	    o, err := c.orders.Get(x.Context(), x.Param("id"))
//	    ...
//	    x.Success(o)
//	}
//
//	r.Get("/orders/{id}", "orders.show", ctx.Wrap(c.Show))
package ctx

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/hayatshop/storefront/pkg/auth"
	"github.com/hayatshop/storefront/pkg/bind"
	"github.com/hayatshop/storefront/pkg/response"
)

// HandlerFunc is the storefront handler signature.
type HandlerFunc func(c *Context)

// Wrap converts h to a standard http.HandlerFunc for the router.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// ─── Context ──────────────────────────────────────────────────────────────────

// Context wraps one request/response pair. It is recycled after the handler
// returns and must not be retained.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter, e.g. c.Param("id") for "/orders/{id}".
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a trimmed query-string value, or "".
func (c *Context) Query(key string) string {
	return strings.TrimSpace(c.R.URL.Query().Get(key))
}

// QueryInt returns key as an int, or def when absent or malformed.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

// QueryFloat returns key as a float, or nil when absent or malformed.
func (c *Context) QueryFloat(key string) *float64 {
	f, err := strconv.ParseFloat(c.Query(key), 64)
	if err != nil {
		return nil
	}
	return &f
}

// QueryBool accepts 1, true and yes.
func (c *Context) QueryBool(key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// QueryList splits a comma separated value and drops blanks.
func (c *Context) QueryList(key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Context returns the request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Claims returns the caller authenticated by middleware.Authenticate.
func (c *Context) Claims() (*auth.Claims, bool) {
	return auth.FromCtx(c.R.Context())
}

// UserID is the authenticated caller's id, or "".
func (c *Context) UserID() string {
	if claims, ok := c.Claims(); ok {
		return claims.UserID
	}
	return ""
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes and validates the body into dest. A malformed body gets a
// 400 and failed validation a 422; both return false with the response sent.
//
//	var in services.CartAdd
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.BadRequest(err.Error())
		return false
	}
	if len(errs) > 0 {
		c.ValidationError(errs)
		return false
	}
	return true
}

// ShouldBindJSON decodes and validates the body without writing a response.
func (c *Context) ShouldBindJSON(dest any) (map[string]string, error) {
	return bind.JSON(c.R, dest)
}

// ─── Response helpers ─────────────────────────────────────────────────────────

func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// Success sends 200 with data as the body.
func (c *Context) Success(data any) { c.JSON(http.StatusOK, data) }

// OK sends 200 {"ok":true} plus fields.
func (c *Context) OK(fields response.Fields) {
	c.status = http.StatusOK
	response.OK(c.W, fields)
}

// Created sends 201 {"ok":true} plus fields.
func (c *Context) Created(fields response.Fields) {
	c.status = http.StatusCreated
	response.Created(c.W, fields)
}

func (c *Context) Error(code int, message string) {
	c.status = code
	response.Error(c.W, code, message)
}

func (c *Context) ValidationError(errs map[string]string) {
	c.status = http.StatusUnprocessableEntity
	response.ValidationError(c.W, errs)
}

func (c *Context) BadRequest(message string) { c.Error(http.StatusBadRequest, message) }

func (c *Context) Unauthorized() { c.Error(http.StatusUnauthorized, "Unauthorized") }

func (c *Context) NotFound(message string) { c.Error(http.StatusNotFound, message) }

// ServerError sends the generic 500.
func (c *Context) ServerError() { c.Error(http.StatusInternalServerError, "Server error") }

// Redirect sends an HTTP redirect.
func (c *Context) Redirect(code int, url string) {
	c.status = code
	http.Redirect(c.W, c.R, url, code)
}

// WrittenStatus is the status sent so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
