package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iyhunko/wallart-storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsServer(t *testing.T) {
	conf := &config.Config{MetricsServer: config.Server{Port: "9191"}}

	server := NewMetricsServer(conf)
	assert.Equal(t, ":9191", server.Addr)

	VariantsDropped.WithLabelValues("invalid_price").Inc()
	ProductsCreated.Inc()

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "products_created_total")
	assert.Contains(t, body, `product_variants_dropped_total{reason="invalid_price"}`)
}
