package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket: RequestsPerWindow refill evenly over
// Window, and up to Burst may be spent at once.
type RateLimitConfig struct {
	RequestsPerWindow int           `koanf:"requests"`
	Window            time.Duration `koanf:"window"`
	Burst             int           `koanf:"burst"`
}

// CredentialLimit guards register and login against guessing.
var CredentialLimit = RateLimitConfig{
	RequestsPerWindow: 5,
	Window:            time.Minute,
	Burst:             5,
}

func (c RateLimitConfig) Validate() error {
	switch {
	case c.RequestsPerWindow <= 0:
		return errors.New("ratelimit: requests must be positive")
	case c.Window <= 0:
		return errors.New("ratelimit: window must be positive")
	case c.Burst <= 0:
		return errors.New("ratelimit: burst must be positive")
	}
	return nil
}

// KeyExtractor picks the bucket a request is charged against. An empty key
// lets the request through unmetered.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor uses the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

const maxPeekBytes = 64 << 10

// JSONFieldKeyExtractor reads a top-level string field from a JSON body. The
// body is restored afterwards so the handler can decode it again.
func JSONFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil {
			return ""
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return ""
		}
		var v string
		if err := json.Unmarshal(fields[field], &v); err != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// CompositeKeyExtractor joins the non-empty keys of every extractor with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if key := extract(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// buckets holds one limiter per key. Idle limiters are swept at most once per
// sweepEvery so ephemeral keys do not accumulate.
type buckets struct {
	limiters   sync.Map // string -> *rate.Limiter
	limit      rate.Limit
	burst      int
	sweepEvery time.Duration

	mu        sync.Mutex
	lastSweep time.Time
}

func (b *buckets) get(key string) *rate.Limiter {
	if l, ok := b.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := b.limiters.LoadOrStore(key, rate.NewLimiter(b.limit, b.burst))
	b.maybeSweep()
	return actual.(*rate.Limiter)
}

func (b *buckets) maybeSweep() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if time.Since(b.lastSweep) < b.sweepEvery {
		return
	}
	b.lastSweep = time.Now()

	// A full bucket has not been touched for at least one refill period.
	b.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(b.burst) {
			b.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit meters requests per key and answers 429 with Retry-After once a
// bucket runs dry.
func RateLimit(cfg RateLimitConfig, key KeyExtractor) Middleware {
	b := &buckets{
		limit:      rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:      cfg.Burst,
		sweepEvery: max(5*cfg.Window, time.Minute),
		lastSweep:  time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			k := key(r)
			if k == "" {
				log.Warn("rate limit: no key for request, allowing")
				next.ServeHTTP(w, r)
				return
			}

			limiter := b.get(k)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := limiter.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())

			log.Warn("rate limit exceeded", "key", k, "retry_after", retryAfter)
			WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
		})
	}
}

// RateLimitByIPAndField charges the bucket for client IP plus a JSON body
// field, so one address cannot hammer a single account.
func RateLimitByIPAndField(cfg RateLimitConfig, field string) Middleware {
	return RateLimit(cfg, CompositeKeyExtractor("|", IPKeyExtractor, JSONFieldKeyExtractor(field)))
}
