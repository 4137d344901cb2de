package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPath(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{nil, "/"},
		{[]string{"", "/"}, "/"},
		{[]string{"/api/", "admin"}, "/api/admin"},
		{[]string{"api", "/orders/{id}/"}, "/api/orders/{id}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, joinPath(tt.parts...))
	}
}

func TestGroupMiddlewareOrderAndParams(t *testing.T) {
	var trail []string
	mark := func(tag string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trail = append(trail, tag)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := New()
	api := r.Group("/api", mark("api"))
	admin := api.Group("admin", mark("admin"))
	admin.Patch("/orders/{id}", "admin.orders.update", func(w http.ResponseWriter, req *http.Request) {
		trail = append(trail, "handler:"+chi.URLParam(req, "id"))
		w.WriteHeader(http.StatusNoContent)
	}, mark("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/admin/orders/o1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"api", "admin", "route", "handler:o1"}, trail)

	require.Len(t, r.Routes(), 1)
	assert.Equal(t, Route{Method: http.MethodPatch, Path: "/api/admin/orders/{id}", Name: "admin.orders.update"}, r.Routes()[0])
}

func TestRoutesSorted(t *testing.T) {
	r := New()
	noop := func(http.ResponseWriter, *http.Request) {}
	g := r.Group("/")
	g.Post("/b", "b.store", noop)
	r.Get("/b", "b.index", noop)
	g.Delete("/a", "", noop)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, Route{Method: http.MethodDelete, Path: "/a"}, routes[0])
	assert.Equal(t, http.MethodGet, routes[1].Method)
	assert.Equal(t, http.MethodPost, routes[2].Method)
}
