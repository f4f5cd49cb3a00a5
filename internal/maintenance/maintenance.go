// Package maintenance provide tools for clean and update the server history
package maintenance

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/query"
)

const workers = 10

// Store is the part of the history repository maintenance works on.
type Store interface {
	GetServers(ctx context.Context) ([]models.ServerRecord, error)
	UpsertServer(ctx context.Context, s models.ServerRecord) error
	DeleteSeenBefore(ctx context.Context, t time.Time) (int64, error)
	DeleteOffline(ctx context.Context) (int64, error)
}

// Querier queries servers again during a re-check.
type Querier interface {
	QueryJava(ctx context.Context, host string, port uint16, version uint32) (*query.JavaResult, error)
	QueryBedrock(ctx context.Context, host string, port uint16) (*query.BedrockResult, error)
}

// Locator maps an address to an ISO country code.
type Locator interface {
	CountryCode(ip netip.Addr) string
}

// Run checks if any maintenance flags are set and executes the corresponding tasks
// in the order prune-before, prune-offline, recheck.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(ctx context.Context, cfg config.Storage, store Store, q Querier, geo Locator) bool {
	ran := false

	if cfg.PruneBefore > 0 {
		ran = true
		before := time.Now().Add(-cfg.PruneBefore)
		log.Info().Time("before", before).Msg("Pruning servers not seen recently...")

		count, err := store.DeleteSeenBefore(ctx, before)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune servers")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}
	}

	if cfg.PruneOffline {
		ran = true
		log.Info().Msg("Pruning offline servers...")

		count, err := store.DeleteOffline(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune offline servers")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}
	}

	if cfg.Recheck {
		ran = true
		Recheck(ctx, store, q, geo)
	}

	return ran
}

// Recheck queries every stored server again and records the outcome.
// It returns the number of servers that answered.
func Recheck(ctx context.Context, store Store, q Querier, geo Locator) int {
	servers, err := store.GetServers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		return 0
	}

	if len(servers) == 0 {
		log.Info().Msg("No servers found for maintenance")
		return 0
	}

	log.Info().Int("count", len(servers)).Msgf("Starting re-check task with %d workers...", workers)
	up := runWorkerPool(ctx, servers, store, q, geo)
	log.Info().Int("online", up).Int("offline", len(servers)-up).Msg("Maintenance task completed")

	return up
}

func runWorkerPool(ctx context.Context, servers []models.ServerRecord, store Store, q Querier, geo Locator) int {
	jobs := make(chan models.ServerRecord, len(servers))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		up int
	)

	// Start workers
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				if processServer(ctx, s, store, q, geo) {
					mu.Lock()
					up++
					mu.Unlock()
				}
			}
		}()
	}

	// Send jobs
	for _, s := range servers {
		jobs <- s
	}
	close(jobs)

	wg.Wait()

	return up
}

func processServer(ctx context.Context, s models.ServerRecord, store Store, q Querier, geo Locator) bool {
	logCtx := log.With().
		Str("edition", string(s.Edition)).
		Str("hostname", s.Hostname).
		Int("port", s.Port).
		Logger()

	// Rows with an unusable port can never be queried again
	if s.Port < 0 || s.Port > 65535 {
		logCtx.Debug().Msg("Invalid port, skipping server")
		return false
	}
	port := uint16(s.Port)

	var (
		rec  models.ServerRecord
		addr netip.AddrPort
		err  error
	)

	switch s.Edition {
	case models.Java:
		var res *query.JavaResult
		if res, err = q.QueryJava(ctx, s.Hostname, port, 0); err == nil {
			rec, addr = res.Record(s.Hostname, port, time.Now()), res.Endpoint.Addr
		}
	case models.Bedrock:
		var res *query.BedrockResult
		if res, err = q.QueryBedrock(ctx, s.Hostname, port); err == nil {
			rec, addr = res.Record(s.Hostname, port, time.Now()), res.Endpoint.Addr
		}
	default:
		logCtx.Debug().Msg("Unknown edition, skipping server")
		return false
	}

	if err != nil {
		logCtx.Debug().Err(err).Msg("Server unreachable, marking offline")
		rec = query.FailedRecord(s.Edition, s.Hostname, port, err, time.Now())
	} else if geo != nil {
		rec.CountryCode = geo.CountryCode(addr.Addr())
	}

	if err := store.UpsertServer(ctx, rec); err != nil {
		logCtx.Error().Err(err).Msg("Failed to update server")
		return false
	}

	logCtx.Trace().Bool("online", rec.Online).Msg("Server updated")

	return rec.Online
}
