package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/provider-hub/pkg/api"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// defaultIdleTTL is how long an unused bucket is kept before it is swept.
const defaultIdleTTL = 10 * time.Minute

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimiter keeps one token bucket per caller. A caller is its bearer key
// when one is sent and its client IP otherwise, so clients sharing a NAT but
// holding different router keys are limited separately.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func NewRateLimiter(rps float64, burst int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: defaultIdleTTL,
		logger:  logger,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// callerKey never holds the raw bearer key.
func callerKey(c *gin.Context) string {
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok && token != "" {
		sum := sha256.Sum256([]byte(token))
		return "key:" + hex.EncodeToString(sum[:8])
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now

	return b.limiter.AllowN(now, 1)
}

// size reports how many callers currently hold a bucket.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *RateLimiter) retryAfter() string {
	if rl.limit <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1 / float64(rl.limit))))
}

// Middleware rejects callers over their budget with a 429 problem.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := callerKey(c)
		if rl.allow(key) {
			c.Next()
			return
		}

		rl.logger.Warn("Rate limit exceeded",
			zap.String("caller", key),
			zap.String("path", c.Request.URL.Path),
		)
		c.Header("Retry-After", rl.retryAfter())
		abortProblem(c, api.NewError(http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded"))
	}
}
