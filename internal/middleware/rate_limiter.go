package middleware

import (
	"net/http"
	"sync"
	"time"

	"winecellar/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per caller within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
}

const purgeInterval = 5 * time.Minute

type rateLimiter struct {
	limit     int
	window    time.Duration
	mu        sync.Mutex
	entries   map[string]*rateEntry
	nextPurge time.Time
}

// RateLimiter limits each caller to limit requests per window. Authenticated
// requests are keyed by tenant, anonymous ones by client IP, so it must run
// after JWTAuth on protected groups.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	rl := &rateLimiter{
		limit:     limit,
		window:    window,
		entries:   make(map[string]*rateEntry),
		nextPurge: time.Now().Add(purgeInterval),
	}
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if tid := c.GetString(TenantIDKey); tid != "" {
			key = "tenant:" + tid
		}
		retryAt, ok := rl.allow(key, time.Now())
		if !ok {
			c.Header("Retry-After", retryAt.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, try again shortly"))
			return
		}
		c.Next()
	}
}

func (rl *rateLimiter) allow(key string, now time.Time) (time.Time, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.After(rl.nextPurge) {
		rl.purge(now)
	}

	entry, exists := rl.entries[key]
	if !exists || now.After(entry.windowEnd) {
		entry = &rateEntry{windowEnd: now.Add(rl.window)}
		rl.entries[key] = entry
	}
	entry.count++
	return entry.windowEnd, entry.count <= rl.limit
}

// purge drops expired windows so callers that never return do not pile up.
func (rl *rateLimiter) purge(now time.Time) {
	purged := 0
	for key, entry := range rl.entries {
		if now.After(entry.windowEnd) {
			delete(rl.entries, key)
			purged++
		}
	}
	rl.nextPurge = now.Add(purgeInterval)
	if purged > 0 {
		log.Debug().
			Int("entries_purged", purged).
			Int("entries_remaining", len(rl.entries)).
			Msg("rate limiter purged")
	}
}
