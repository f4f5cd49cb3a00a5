// Package query is the facade over resolution and the two edition clients.
// Calls share nothing but the resolver and never cache results.
package query

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/bedrock"
	"github.com/woozymasta/mcstatus/internal/java"
	"github.com/woozymasta/mcstatus/internal/models"
)

// Resolver turns a requested address into one endpoint.
type Resolver interface {
	Resolve(ctx context.Context, addr models.ServerAddress) (models.Endpoint, error)
}

// JavaClient runs the Java edition status exchange.
type JavaClient interface {
	Query(ctx context.Context, host string, addr netip.AddrPort, version int32) (*java.Response, error)
}

// BedrockClient runs the Bedrock edition unconnected ping.
type BedrockClient interface {
	Query(ctx context.Context, addr netip.AddrPort) (*bedrock.Response, error)
}

// Service answers status queries for both editions.
type Service struct {
	resolver Resolver
	java     JavaClient
	bedrock  BedrockClient
	guard    *Guard
}

// NewService wires the facade. guard may be nil.
func NewService(resolver Resolver, javaClient JavaClient, bedrockClient BedrockClient, guard *Guard) *Service {
	return &Service{
		resolver: resolver,
		java:     javaClient,
		bedrock:  bedrockClient,
		guard:    guard,
	}
}

// QueryJava resolves host (SRV first) and returns its raw status document.
// Port 0 selects the default, version 0 lets the server pick its own.
func (s *Service) QueryJava(ctx context.Context, host string, port uint16, version uint32) (*JavaResult, error) {
	start := time.Now()

	ep, err := s.endpoint(ctx, models.ServerAddress{Host: host, Edition: models.Java, Port: port})
	if err != nil {
		return nil, err
	}

	// The handshake carries the requested host, not the SRV target.
	resp, err := s.java.Query(ctx, host, ep.Addr, int32(version))
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("host", host).
		Stringer("endpoint", ep.Addr).
		Bool("srv", ep.SRV).
		Bool("ping", resp.Ping != nil).
		Dur("took", time.Since(start)).
		Msg("Java query completed")

	return &JavaResult{Endpoint: ep, Status: resp.Status, Ping: resp.Ping}, nil
}

// QueryBedrock resolves host and returns its parsed unconnected pong.
func (s *Service) QueryBedrock(ctx context.Context, host string, port uint16) (*BedrockResult, error) {
	start := time.Now()

	ep, err := s.endpoint(ctx, models.ServerAddress{Host: host, Edition: models.Bedrock, Port: port})
	if err != nil {
		return nil, err
	}

	resp, err := s.bedrock.Query(ctx, ep.Addr)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("host", host).
		Stringer("endpoint", ep.Addr).
		Dur("took", time.Since(start)).
		Msg("Bedrock query completed")

	return &BedrockResult{Endpoint: ep, Status: resp.Status, Ping: resp.Ping}, nil
}

func (s *Service) endpoint(ctx context.Context, addr models.ServerAddress) (models.Endpoint, error) {
	ep, err := s.resolver.Resolve(ctx, addr)
	if err != nil {
		return models.Endpoint{}, err
	}

	if err := s.guard.Check(ep.Addr.Addr()); err != nil {
		return models.Endpoint{}, fmt.Errorf("%s: %w", addr.Host, err)
	}

	return ep, nil
}
