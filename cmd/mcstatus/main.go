// main is the entry point of the mcstatus service.
// It initializes the configuration, logger, resolver, protocol clients, database, GeoIP provider,
// and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/bedrock"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/fake"
	"github.com/woozymasta/mcstatus/internal/geoip"
	"github.com/woozymasta/mcstatus/internal/java"
	"github.com/woozymasta/mcstatus/internal/logger"
	"github.com/woozymasta/mcstatus/internal/maintenance"
	"github.com/woozymasta/mcstatus/internal/query"
	"github.com/woozymasta/mcstatus/internal/resolver"
	"github.com/woozymasta/mcstatus/internal/server"
	"github.com/woozymasta/mcstatus/internal/storage"
	"github.com/woozymasta/mcstatus/internal/vars"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Info().Str("version", vars.Version).Msg("Starting mcstatus service...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Query service
	guard, err := query.NewGuard(cfg.Query.DenyNetworks)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid denied network")
	}

	lookup := resolver.NewDNS(resolver.DNSOptions{
		Servers:  cfg.DNS.Servers,
		Timeout:  cfg.DNS.Timeout,
		Protocol: cfg.DNS.Protocol,
	})

	svc := query.NewService(
		resolver.New(lookup),
		java.NewClient(cfg.Query.JavaTimeout),
		bedrock.NewClient(cfg.Query.BedrockTimeout),
		guard,
	)

	// GeoIP
	geoProvider := openGeoIP(ctx, cfg.GeoIP)
	defer func() {
		if err := geoProvider.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing GeoIP provider")
		}
	}()

	// Database
	store, err := openStorage(ctx, cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// data generation or database maintenance
	if store != nil && cfg.Storage.Maintenance() {
		if cfg.Storage.GenerateCount > 0 {
			fake.GenerateData(ctx, store, cfg.Storage.GenerateCount)
		}
		maintenance.Run(ctx, cfg.Storage, store, svc, geoProvider)
		closeStorage(store)
		return
	}

	// Init server, a nil repository must stay an untyped nil interface
	var history server.Store
	if store != nil {
		history = store
	}
	srvHandler := server.New(svc, history, geoProvider, cfg)

	// Background queue
	srvHandler.StartWorkers()

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srvHandler.Run(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Query.JavaTimeout*3 + cfg.DNS.Timeout*2 + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	// Shut down HTTP
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop workers (wait queue done)
	srvHandler.StopWorkers()

	// Close DB
	closeStorage(store)

	log.Info().Msg("Server exited")
}

// openGeoIP refreshes and opens the country database. Failures disable country detection.
func openGeoIP(ctx context.Context, cfg config.GeoIP) *geoip.Provider {
	if cfg.Path == "" {
		log.Info().Msg("GeoIP disabled")
		return nil
	}

	log.Info().Msg("Checking GeoIP database...")
	if err := geoip.EnsureDB(ctx, cfg.Path, cfg.URL, cfg.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	provider, err := geoip.Open(cfg.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		return nil
	}

	return provider
}

// openStorage returns nil without error when history is disabled.
func openStorage(ctx context.Context, path string) (*storage.Repository, error) {
	if path == "" {
		log.Info().Msg("History disabled")
		return nil, nil
	}

	return storage.New(ctx, path)
}

func closeStorage(store *storage.Repository) {
	if store == nil {
		return
	}

	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database")
	}
}
