package middleware

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// пути, которые не ограничиваются: проверки живости и скрейп метрик
var unlimitedPaths = map[string]bool{
	"/health":        true,
	"/api/v1/health": true,
	"/metrics":       true,
}

// RateLimitMiddleware ограничивает все запросы одним общим лимитером
func RateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if unlimitedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		if !limiter.Allow() {
			log.Printf("Rate limit blocked IP: %s for path: %s",
				c.ClientIP(), c.Request.URL.Path)

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"message": "please try again later",
			})
			return
		}

		c.Next()
	}
}

// IPRateLimiter держит отдельный лимитер на каждый IP.
// Используется для ручных запусков синхронизации, чтобы один клиент не забивал фид.
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   r,
		b:   b,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}

	return limiter
}

func IPRateLimitMiddleware(ipLimiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !ipLimiter.GetLimiter(clientIP).Allow() {
			log.Printf("Per-IP rate limit blocked %s for path: %s", clientIP, c.Request.URL.Path)

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded for your IP",
				"message": "please try again in a few seconds",
			})
			return
		}

		c.Next()
	}
}
