package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog/log"
)

const (
	// FallbackServer is used when no nameserver is configured and resolv.conf is unusable.
	FallbackServer = "8.8.8.8:53"

	// DefaultDNSTimeout bounds a single exchange with one nameserver.
	DefaultDNSTimeout = 2 * time.Second

	resolvConf = "/etc/resolv.conf"
	ednsSize   = 1232
)

// Transport protocols accepted by DNSOptions.Protocol.
const (
	ProtoAuto = "auto"
	ProtoUDP  = "udp"
	ProtoTCP  = "tcp"
)

var errServerFailure = errors.New("nameserver failure")

// DNSOptions configures the miekg/dns backed Lookuper.
type DNSOptions struct {
	Protocol string
	Servers  []string
	Timeout  time.Duration
}

// DNS is a recursive stub resolver. It is safe for concurrent use.
type DNS struct {
	udp      *dns.Client
	tcp      *dns.Client
	protocol string
	servers  []string
}

// NewDNS builds a DNS lookuper. Without servers it reads the system resolv.conf.
func NewDNS(opts DNSOptions) *DNS {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultDNSTimeout
	}

	servers := make([]string, 0, len(opts.Servers))
	for _, s := range opts.Servers {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, withPort(s))
		}
	}
	if len(servers) == 0 {
		servers = systemServers()
	}

	protocol := strings.ToLower(opts.Protocol)
	if protocol == "" {
		protocol = ProtoAuto
	}

	log.Debug().
		Strs("servers", servers).
		Str("protocol", protocol).
		Dur("timeout", opts.Timeout).
		Msg("DNS resolver configured")

	return &DNS{
		udp:      &dns.Client{Net: ProtoUDP, Timeout: opts.Timeout},
		tcp:      &dns.Client{Net: ProtoTCP, Timeout: opts.Timeout},
		protocol: protocol,
		servers:  servers,
	}
}

// Servers returns the nameservers in failover order.
func (d *DNS) Servers() []string {
	return append([]string(nil), d.servers...)
}

// LookupSRV implements Lookuper.
func (d *DNS) LookupSRV(ctx context.Context, name string) ([]SRV, error) {
	r, err := d.exchange(ctx, name, dns.TypeSRV)
	if err != nil {
		return nil, err
	}

	var out []SRV
	for _, rr := range r.Answer {
		srv, ok := rr.(*dns.SRV)
		if !ok {
			continue
		}

		out = append(out, SRV{
			Target:   strings.TrimSuffix(srv.Target, "."),
			Port:     srv.Port,
			Priority: srv.Priority,
			Weight:   srv.Weight,
		})
	}

	return out, nil
}

// LookupIP implements Lookuper. AAAA is only queried when no A records exist.
func (d *DNS) LookupIP(ctx context.Context, host string) ([]netip.Addr, error) {
	var firstErr error

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		r, err := d.exchange(ctx, host, qtype)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		var ips []netip.Addr
		for _, rr := range r.Answer {
			switch v := rr.(type) {
			case *dns.A:
				if ip, ok := netip.AddrFromSlice(v.A.To4()); ok {
					ips = append(ips, ip)
				}
			case *dns.AAAA:
				if ip, ok := netip.AddrFromSlice(v.AAAA.To16()); ok {
					ips = append(ips, ip)
				}
			}
		}

		if len(ips) > 0 {
			return ips, nil
		}
	}

	return nil, firstErr
}

// exchange asks each nameserver in turn until one returns an authoritative answer
// or NXDOMAIN. NXDOMAIN yields an empty message.
func (d *DNS) exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.SetEdns0(ednsSize, false)

	var lastErr error
	for _, server := range d.servers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r, err := d.query(ctx, m, server)
		if err != nil {
			log.Debug().Err(err).Str("server", server).Str("name", name).Msg("DNS exchange failed")
			lastErr = err
			continue
		}

		switch r.Rcode {
		case dns.RcodeSuccess, dns.RcodeNameError:
			return r, nil
		default:
			lastErr = fmt.Errorf("%w: %s answered %s", errServerFailure, server, dns.RcodeToString[r.Rcode])
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no nameservers configured", errServerFailure)
	}

	return nil, lastErr
}

func (d *DNS) query(ctx context.Context, m *dns.Msg, server string) (*dns.Msg, error) {
	switch d.protocol {
	case ProtoUDP:
		r, _, err := d.udp.ExchangeContext(ctx, m, server)
		return r, err
	case ProtoTCP:
		r, _, err := d.tcp.ExchangeContext(ctx, m, server)
		return r, err
	}

	r, _, err := d.udp.ExchangeContext(ctx, m, server)
	if err != nil {
		return nil, err
	}
	if !r.Truncated {
		return r, nil
	}

	log.Trace().Str("name", m.Question[0].Name).Msg("Truncated response, retrying over TCP")

	r, _, err = d.tcp.ExchangeContext(ctx, m, server)
	return r, err
}

func systemServers() []string {
	conf, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil || len(conf.Servers) == 0 {
		log.Warn().Err(err).Str("fallback", FallbackServer).Msg("No usable system nameservers")
		return []string{FallbackServer}
	}

	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		servers = append(servers, net.JoinHostPort(s, conf.Port))
	}

	return servers
}

// withPort appends the DNS port when s carries none.
func withPort(s string) string {
	if _, _, err := net.SplitHostPort(s); err == nil {
		return s
	}

	return net.JoinHostPort(strings.Trim(s, "[]"), "53")
}
