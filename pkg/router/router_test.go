package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(r.Method + " " + chi.URLParam(r, "id")))
}

func tag(v string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Tag", v)
			next.ServeHTTP(w, r)
		})
	}
}

func serve(r *Router, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.Handler().ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func TestGroupsAndMiddlewareOrder(t *testing.T) {
	r := New()
	api := r.Group("/api", tag("api"))
	admin := api.Group("admin/", tag("admin"))
	admin.Delete("/products/{id}", "admin.products.destroy", echo, tag("route"))
	api.Get("/products/{id}", "products.show", echo)

	rr := serve(r, http.MethodDelete, "/api/admin/products/9")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "DELETE 9", rr.Body.String())
	assert.Equal(t, []string{"api", "admin", "route"}, rr.Header().Values("X-Tag"))

	rr = serve(r, http.MethodGet, "/api/products/3")
	assert.Equal(t, "GET 3", rr.Body.String())
	assert.Equal(t, []string{"api"}, rr.Header().Values("X-Tag"))
}

func TestNamedRoutes(t *testing.T) {
	r := New()
	r.Get("/api/articles/{id}/pdf", "articles.pdf", echo)

	u, err := r.URL("articles.pdf", map[string]string{"id": "12"})
	require.NoError(t, err)
	assert.Equal(t, "/api/articles/12/pdf", u)

	_, err = r.URL("articles.pdf", nil)
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutesSortedAndHandle(t *testing.T) {
	r := New()
	r.Post("/b", "b.store", echo)
	r.Get("/b", "b.index", echo)
	r.Get("/a", "a.index", echo)
	r.Handle("/uploads/*", "uploads", http.HandlerFunc(echo))

	assert.Equal(t, []RouteInfo{
		{Method: "GET", Path: "/a", Name: "a.index"},
		{Method: "GET", Path: "/b", Name: "b.index"},
		{Method: "POST", Path: "/b", Name: "b.store"},
		{Method: "*", Path: "/uploads/*", Name: "uploads"},
	}, r.Routes())

	assert.Equal(t, http.StatusOK, serve(r, http.MethodHead, "/uploads/u1/x.jpg").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodDelete, "/a").Code)
}
