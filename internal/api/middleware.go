package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RishiKendai/argus/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrorResponse is the envelope every error reply uses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const (
	// Idle rate-limit buckets are dropped after evictAfter, checked at
	// most once per sweepInterval.
	evictAfter    = time.Hour
	sweepInterval = 10 * time.Minute
)

// RequestLogger logs every request and feeds the request counter.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := c.Writer.Status()
		metrics.RequestCount.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request")
	}
}

// JWTAuthMiddleware rejects requests without a valid bearer token. The
// token must be HMAC signed with the shared secret and, when issuer is
// non-empty, carry a matching iss claim. The api_key claim names the
// caller for rate limiting; tokens without one are keyed by the raw
// token string.
func JWTAuthMiddleware(secret, issuer string) gin.HandlerFunc {
	keyFn := func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "Bearer token required")
			return
		}

		token, err := jwt.ParseWithClaims(raw, jwt.MapClaims{}, keyFn, opts...)
		if err != nil || !token.Valid {
			unauthorized(c, "Invalid or expired token")
			return
		}

		key := raw
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if s, ok := claims["api_key"].(string); ok && s != "" {
				key = s
			}
		}
		c.Set("api_key", key)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error: msg,
		Code:  "UNAUTHORIZED",
	})
}

// clientLimiter pairs a token bucket with the last time its key was
// seen.
type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per API key. Keys idle past
// evictAfter are dropped on the next sweep so the map does not grow
// with every key ever seen.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// Allow reports whether the key may make a request right now.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= sweepInterval {
		rl.evictIdle(now)
	}

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{bucket: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now

	return client.bucket.Allow()
}

// evictIdle drops buckets whose key has not been seen for evictAfter.
// Callers hold mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	for key, client := range rl.clients {
		if now.Sub(client.lastSeen) > evictAfter {
			delete(rl.clients, key)
		}
	}
	rl.lastSweep = now
}

// RateLimitMiddleware enforces the per-key limit. Requests without an
// api_key in context are keyed by client IP.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("api_key")
		if key == "" {
			key = c.ClientIP()
		}

		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "Rate limit exceeded",
				Code:  "RATE_LIMIT_EXCEEDED",
			})
			return
		}

		c.Next()
	}
}

// ErrorHandlerMiddleware converts errors attached to the context into
// the standard envelope when no handler wrote a response.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last()
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "INTERNAL_ERROR",
		})
	}
}
