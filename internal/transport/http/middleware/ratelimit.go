package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "go-gin-blog/internal/transport/http/response"
)

type ipBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

const bucketIdleTTL = 10 * time.Minute

// RateLimitPerIP 每 IP 限速；rps<=0 不限制
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*ipBucket)
		lastSweep = time.Now()
	)
	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		// 定期清理长时间不活跃的 IP
		if now.Sub(lastSweep) > bucketIdleTTL {
			for k, b := range buckets {
				if now.Sub(b.seen) > bucketIdleTTL {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		b, ok := buckets[ip]
		if !ok {
			b = &ipBucket{lim: rate.NewLimiter(rps, burst)}
			buckets[ip] = b
		}
		b.seen = now
		allowed := b.lim.AllowN(now, 1)
		mu.Unlock()

		if allowed {
			c.Next()
			return
		}
		resp.Fail(c, http.StatusTooManyRequests, resp.MsgTooManyRequests)
	}
}
