package server

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/query"
)

// storeTimeout bounds a single history write.
const storeTimeout = 5 * time.Second

var now = time.Now

// recordFailure queues a failed query. Rejected input never reaches the history.
func (s *Server) recordFailure(edition models.Edition, host string, port uint16, err error) {
	if errors.Is(err, models.ErrInvalidAddress) || errors.Is(err, models.ErrDenied) {
		return
	}

	s.enqueue(historyJob{Record: query.FailedRecord(edition, host, port, err, now())})
}

// enqueue hands a record to the workers without blocking the response.
func (s *Server) enqueue(job historyJob) {
	if s.storage == nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}

	select {
	case s.queue <- job:
		log.Trace().
			Str("edition", string(job.Record.Edition)).
			Str("hostname", job.Record.Hostname).
			Bool("online", job.Record.Online).
			Msg("History record queued")
	default:
		log.Warn().
			Str("edition", string(job.Record.Edition)).
			Str("hostname", job.Record.Hostname).
			Msg("Queue full, history record dropped")
	}
}

// worker is a background goroutine that processes jobs from the history queue.
func (s *Server) worker() {
	defer s.wg.Done()

	for job := range s.queue {
		s.processJob(job)
	}
}

// processJob resolves the country (GeoIP) and upserts the record to the storage.
func (s *Server) processJob(job historyJob) {
	rec := job.Record
	if s.geoip != nil && job.IP.IsValid() {
		rec.CountryCode = s.geoip.CountryCode(job.IP)
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := s.storage.UpsertServer(ctx, rec); err != nil {
		log.Error().Err(err).Str("hostname", rec.Hostname).Msg("Failed to save server to DB")
		return
	}

	log.Debug().
		Str("edition", string(rec.Edition)).
		Str("hostname", rec.Hostname).
		Str("country", rec.CountryCode).
		Bool("online", rec.Online).
		Msg("History saved")
}
