// Package resolver turns a requested host and edition into a single socket endpoint,
// following the SRV convention of the Java edition and the per-family default ports
// of the Bedrock edition.
package resolver

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/models"
)

// srvPrefix is prepended to the host for the Java edition SRV lookup.
const srvPrefix = "_minecraft._tcp."

// SRV is one service record.
type SRV struct {
	Target   string
	Port     uint16
	Priority uint16
	Weight   uint16
}

// Lookuper performs the DNS queries needed for resolution. Implementations must be
// safe for concurrent use and hold no per-query state.
type Lookuper interface {
	// LookupSRV returns the SRV records of name. No records is not an error.
	LookupSRV(ctx context.Context, name string) ([]SRV, error)

	// LookupIP returns the addresses of host, IPv4 first.
	LookupIP(ctx context.Context, host string) ([]netip.Addr, error)
}

// Resolver resolves server addresses. It caches nothing; every call performs fresh lookups.
type Resolver struct {
	lookup Lookuper
}

// New returns a Resolver backed by l.
func New(l Lookuper) *Resolver {
	return &Resolver{lookup: l}
}

// Resolve returns exactly one endpoint for addr or an error wrapping
// models.ErrInvalidAddress or models.ErrResolution.
func (r *Resolver) Resolve(ctx context.Context, addr models.ServerAddress) (models.Endpoint, error) {
	host := strings.TrimSpace(addr.Host)
	if host == "" {
		return models.Endpoint{}, fmt.Errorf("%w: empty hostname", models.ErrInvalidAddress)
	}

	// Literal addresses skip DNS entirely.
	if ip, ok := parseLiteral(host); ok {
		return models.Endpoint{
			Addr:   netip.AddrPortFrom(ip, pickPort(addr, ip)),
			Target: host,
		}, nil
	}

	if addr.Edition == models.Java {
		if srv, ok := r.firstSRV(ctx, host); ok {
			ip, err := r.firstIP(ctx, srv.Target)
			if err != nil {
				return models.Endpoint{}, err
			}

			return models.Endpoint{
				Addr:   netip.AddrPortFrom(ip, srv.Port),
				Target: srv.Target,
				SRV:    true,
			}, nil
		}
	}

	ip, err := r.firstIP(ctx, host)
	if err != nil {
		return models.Endpoint{}, err
	}

	return models.Endpoint{
		Addr:   netip.AddrPortFrom(ip, pickPort(addr, ip)),
		Target: host,
	}, nil
}

// firstSRV returns the first usable SRV record. Lookup failures fall back to a
// direct address lookup, so they are only logged.
func (r *Resolver) firstSRV(ctx context.Context, host string) (SRV, bool) {
	name := srvPrefix + host

	records, err := r.lookup.LookupSRV(ctx, name)
	if err != nil {
		log.Debug().Err(err).Str("name", name).Msg("SRV lookup failed, using host directly")
		return SRV{}, false
	}

	for _, rec := range records {
		target := strings.TrimSuffix(rec.Target, ".")
		// A target of "." means the service is explicitly unavailable.
		if target == "" {
			return SRV{}, false
		}

		log.Trace().
			Str("name", name).
			Str("target", target).
			Uint16("port", rec.Port).
			Msg("Using SRV record")

		rec.Target = target
		return rec, true
	}

	return SRV{}, false
}

func (r *Resolver) firstIP(ctx context.Context, host string) (netip.Addr, error) {
	ips, err := r.lookup.LookupIP(ctx, host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: lookup %s: %w", models.ErrResolution, host, err)
	}
	if len(ips) == 0 {
		return netip.Addr{}, fmt.Errorf("%w: no addresses for %s", models.ErrResolution, host)
	}

	return ips[0], nil
}

// parseLiteral accepts IPv4, IPv6 and bracketed IPv6 literals.
func parseLiteral(host string) (netip.Addr, bool) {
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}

	ip, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}

	return ip, true
}

func pickPort(addr models.ServerAddress, ip netip.Addr) uint16 {
	if addr.Port != 0 {
		return addr.Port
	}

	return addr.Edition.DefaultPort(ip.Is6() && !ip.Is4In6())
}
