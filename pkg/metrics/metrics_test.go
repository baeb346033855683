package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/workshops/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("brewing"))
	})

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/workshops/"+id, nil))
	}

	body := scrape(t)
	assert.Contains(t, body, `wellness_http_requests_total{method="GET",route="/api/workshops/{id}",status="418"} 2`)
	assert.Contains(t, body, "wellness_http_requests_in_flight 0")
}

func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	ImportRows.WithLabelValues("created").Add(3)
	OrdersPlaced.Inc()

	body := scrape(t)
	assert.Contains(t, body, `wellness_import_rows_total{result="created"}`)
	assert.Contains(t, body, "wellness_shop_orders_placed_total")
	assert.Contains(t, body, "go_goroutines")
}
