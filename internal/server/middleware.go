package server

import (
	"context"
	"crypto/subtle"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the id assigned to the request by RequestIDMiddleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetRealIP attempts to determine the client's real IP address, trusting
// headers like CF-Connecting-IP or X-Forwarded-For if configured to do so.
func GetRealIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
			return cf
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			return strings.TrimSpace(parts[0])
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// ipLimiter holds one token bucket per client IP.
type ipLimiter struct {
	clients map[string]*limitedClient
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(count int, window time.Duration) *ipLimiter {
	if count <= 0 || window <= 0 {
		return nil
	}

	return &ipLimiter{
		clients: make(map[string]*limitedClient),
		limit:   rate.Limit(float64(count) / window.Seconds()),
		burst:   count,
		idle:    2 * window,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	cli, found := l.clients[ip]
	if !found {
		cli = &limitedClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = cli
	}
	cli.lastSeen = time.Now()
	limiter := cli.limiter
	l.mu.Unlock()

	return limiter.Allow()
}

// retryAfter is the whole number of seconds until one more token is available.
func (l *ipLimiter) retryAfter() string {
	return strconv.Itoa(max(1, int(math.Ceil(1/float64(l.limit)))))
}

// prune drops clients idle for longer than two windows.
func (l *ipLimiter) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idle {
			delete(l.clients, ip)
		}
	}
}

// gcRateLimiter periodically drops idle clients from the rate limiter.
func (s *Server) gcRateLimiter() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.limiter.prune()
		}
	}
}

// RateLimitMiddleware applies a rate limit based on the client's IP address, shared by
// every route it wraps. It rejects requests with "429 Too Many Requests" if the limit is exceeded.
func (s *Server) RateLimitMiddleware(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetRealIP(r, s.trustProxy)

		if !s.limiter.allow(ip) {
			log.Debug().Str("ip", ip).Str("path", r.URL.Path).Msg("Rate limit hit")
			w.Header().Set("Retry-After", s.limiter.retryAfter())
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware propagates an incoming X-Request-ID or assigns a new one.
func (s *Server) RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs the details of each HTTP request, including method, path, IP, status and duration.
func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", GetRealIP(r, s.trustProxy)).
			Str("request_id", RequestID(r.Context())).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// CORSMiddleware adds the cross-origin headers to every response and answers
// preflight OPTIONS requests for any path with 204. DELETE and the Authorization
// header are only advertised while the admin API is mounted.
func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	methods, headers := "GET, OPTIONS", "*"
	if s.adminEnabled() {
		// a "*" wildcard never covers Authorization
		methods, headers = "GET, DELETE, OPTIONS", "*, Authorization"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.corsOrigin)
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AdminAuthMiddleware protects endpoints by requiring a valid Bearer token in the Authorization header.
func AdminAuthMiddleware(token string, next http.Handler) http.Handler {
	want := []byte("Bearer " + token)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), want) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
