// Package server implements the HTTP server, middleware, and request handlers for the application.
package server

import (
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/models"
)

const (
	historyWorkers   = 4
	historyQueueSize = 1000
)

// New creates a new Server instance. store and geo may be nil.
func New(q Querier, store Store, geo Locator, cfg *config.Config) *Server {
	hostMap := make(map[uint64]struct{})
	for _, host := range cfg.Server.DenyHosts {
		if host = models.NormalizeHost(host); host != "" {
			hostMap[xxhash.Sum64String(host)] = struct{}{}
		}
	}

	return &Server{
		querier:     q,
		storage:     store,
		geoip:       geo,
		limiter:     newIPLimiter(cfg.RateLimit.Count, cfg.RateLimit.Window),
		deniedHosts: hostMap,
		authToken:   cfg.Server.AuthToken,
		corsOrigin:  cfg.Server.CORSOrigin,
		trustProxy:  cfg.Server.TrustProxy,

		queue:    make(chan historyJob, historyQueueSize),
		shutdown: make(chan struct{}),
	}
}

// StartWorkers initializes the background worker pool writing the query history
// and the rate limiter cleanup routine.
func (s *Server) StartWorkers() {
	if s.limiter != nil {
		go s.gcRateLimiter()
	}

	if s.storage == nil {
		return
	}

	for i := 0; i < historyWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

// StopWorkers gracefully stops the background goroutines and drains the history queue.
func (s *Server) StopWorkers() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.shutdown)
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /java", s.RateLimitMiddleware(http.HandlerFunc(s.handleJava)))
	mux.Handle("GET /bedrock", s.RateLimitMiddleware(http.HandlerFunc(s.handleBedrock)))
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	if s.adminEnabled() {
		mux.Handle("GET /api/servers", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleListServers)))
		mux.Handle("DELETE /api/servers", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleDeleteServer)))
	} else {
		log.Info().Msg("Admin API disabled, it needs an auth token and a database")
	}

	return s.RequestIDMiddleware(s.LoggingMiddleware(s.CORSMiddleware(mux)))
}

// adminEnabled reports whether the admin API is mounted.
func (s *Server) adminEnabled() bool {
	return s.authToken != "" && s.storage != nil
}

// isDenied reports whether host is on the configured deny list.
func (s *Server) isDenied(host string) bool {
	if len(s.deniedHosts) == 0 {
		return false
	}

	_, denied := s.deniedHosts[xxhash.Sum64String(models.NormalizeHost(host))]
	return denied
}
