package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealdesk/core/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMetricsUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/deals/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/deals/a", "/deals/b", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `dealdesk_http_requests_total{method="GET",route="/deals/:id",status="200"} 2`)
	assert.Contains(t, body, `dealdesk_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}
