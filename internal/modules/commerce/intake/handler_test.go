package intake

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPublicRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := setup(t)
	link := e.issue(t)

	r := gin.New()
	NewHandler(e.svc, zap.NewNop()).RegisterPublicRoutes(r.Group("/api/v1"))

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		r.ServeHTTP(w, req)
		return w
	}
	path := "/api/v1/public/intake/" + link.Token

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/v1/public/intake/unknown", "").Code)

	w := do(http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), link.Token)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, path, `{}`).Code)
	assert.Equal(t, http.StatusCreated, do(http.MethodPost, path, `{"company_name":"Acme"}`).Code)

	w = do(http.MethodPost, path, `{"company_name":"Acme"}`)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "already been used")
	assert.Equal(t, http.StatusGone, do(http.MethodGet, path, "").Code)
}
