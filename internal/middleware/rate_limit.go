package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/contactdesk/contacts-api/pkg/logger"
)

// ipWindow keeps a sliding window of request timestamps per client IP.
type ipWindow struct {
	mu     sync.Mutex
	seen   map[string][]time.Time
	limit  int
	window time.Duration
}

// allow prunes expired entries, records the request when it fits and
// reports how many slots remain in the window.
func (w *ipWindow) allow(ip string, now time.Time) (bool, int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-w.window)
	for addr, stamps := range w.seen {
		kept := stamps[:0]
		for _, ts := range stamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(w.seen, addr)
		} else {
			w.seen[addr] = kept
		}
	}

	stamps := w.seen[ip]
	if len(stamps) >= w.limit {
		return false, 0
	}
	w.seen[ip] = append(stamps, now)
	return true, w.limit - len(stamps) - 1
}

// RateLimit rejects clients exceeding limit requests per window,
// keyed by client IP.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	w := &ipWindow{
		seen:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		ok, remaining := w.allow(ip, now)
		if !ok {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("client_ip", ip),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("limit", limit),
				zap.Duration("window", window),
			)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(now.Add(window).Unix(), 10))

		c.Next()
	}
}
