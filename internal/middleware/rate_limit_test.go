package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/api/v1/sync/status", ok)
	r.GET("/api/v1/health", ok)
	r.GET("/metrics", ok)
	return r
}

func do(r http.Handler, path, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(RateLimitMiddleware(rate.NewLimiter(rate.Limit(0.001), 2)))

	assert.Equal(t, http.StatusOK, do(r, "/api/v1/sync/status", "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do(r, "/api/v1/sync/status", "10.0.0.2:1000"))
	assert.Equal(t, http.StatusTooManyRequests, do(r, "/api/v1/sync/status", "10.0.0.3:1000"))

	// health и metrics не ограничиваются
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, "/api/v1/health", "10.0.0.1:1000"))
		assert.Equal(t, http.StatusOK, do(r, "/metrics", "10.0.0.1:1000"))
	}
}

func TestIPRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(0.001), 1)
	r := newRouter(IPRateLimitMiddleware(limiter))

	assert.Equal(t, http.StatusOK, do(r, "/api/v1/sync/status", "10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, do(r, "/api/v1/sync/status", "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do(r, "/api/v1/sync/status", "10.0.0.2:1000"))

	assert.Same(t, limiter.GetLimiter("10.0.0.1"), limiter.GetLimiter("10.0.0.1"))
}
