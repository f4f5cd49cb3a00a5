package resolver

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/mcstatus/internal/models"
)

var testZone = []string{
	"_minecraft._tcp.example.com. 60 IN SRV 0 5 25566 play.example.com.",
	"play.example.com. 60 IN A 203.0.113.7",
	"example.com. 60 IN A 198.51.100.1",
	"example.com. 60 IN A 198.51.100.2",
	"v6.example.com. 60 IN AAAA 2001:db8::7",
	"big.example.com. 60 IN A 192.0.2.10",
}

// startDNS serves testZone over UDP and TCP on the same loopback port.
// Queries for big.example.com are truncated over UDP.
func startDNS(t *testing.T) string {
	t.Helper()

	zone := make(map[string][]dns.RR)
	for _, s := range testZone {
		rr, err := dns.NewRR(s)
		require.NoError(t, err)
		name := strings.ToLower(rr.Header().Name)
		zone[name] = append(zone[name], rr)
	}

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		q := req.Question[0]
		name := strings.ToLower(q.Name)

		switch {
		case name == "broken.example.com.":
			m.Rcode = dns.RcodeServerFailure
		case name == "big.example.com." && w.RemoteAddr().Network() == "udp":
			m.Truncated = true
		default:
			rrs, ok := zone[name]
			if !ok {
				m.Rcode = dns.RcodeNameError
				break
			}
			for _, rr := range rrs {
				if rr.Header().Rrtype == q.Qtype {
					m.Answer = append(m.Answer, rr)
				}
			}
		}

		_ = w.WriteMsg(m)
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	ln, err := net.Listen("tcp", pc.LocalAddr().String())
	require.NoError(t, err)

	for _, srv := range []*dns.Server{
		{PacketConn: pc, Handler: handler},
		{Listener: ln, Handler: handler},
	} {
		started := make(chan struct{})
		srv.NotifyStartedFunc = func() { close(started) }
		go func() { _ = srv.ActivateAndServe() }()
		<-started
		t.Cleanup(func() { _ = srv.Shutdown() })
	}

	return pc.LocalAddr().String()
}

// deadServer returns a loopback UDP address nothing listens on.
func deadServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := pc.LocalAddr().String()
	require.NoError(t, pc.Close())

	return addr
}

func newTestDNS(servers ...string) *DNS {
	return NewDNS(DNSOptions{Servers: servers, Timeout: 500 * time.Millisecond})
}

func TestDNSLookupSRV(t *testing.T) {
	d := newTestDNS(startDNS(t))

	records, err := d.LookupSRV(context.Background(), "_minecraft._tcp.example.com")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "play.example.com", records[0].Target)
	assert.Equal(t, uint16(25566), records[0].Port)
	assert.Equal(t, uint16(5), records[0].Weight)
}

func TestDNSLookupIP(t *testing.T) {
	d := newTestDNS(startDNS(t))
	ctx := context.Background()

	ips, err := d.LookupIP(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{
		netip.MustParseAddr("198.51.100.1"),
		netip.MustParseAddr("198.51.100.2"),
	}, ips)

	ips, err = d.LookupIP(ctx, "v6.example.com")
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("2001:db8::7")}, ips)

	ips, err = d.LookupIP(ctx, "missing.example.com")
	require.NoError(t, err, "NXDOMAIN is an empty answer")
	assert.Empty(t, ips)

	_, err = d.LookupIP(ctx, "broken.example.com")
	assert.ErrorIs(t, err, errServerFailure)
}

func TestDNSTruncatedRetriesOverTCP(t *testing.T) {
	d := newTestDNS(startDNS(t))

	ips, err := d.LookupIP(context.Background(), "big.example.com")
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("192.0.2.10")}, ips)
}

func TestDNSProtocolTCP(t *testing.T) {
	d := NewDNS(DNSOptions{Servers: []string{startDNS(t)}, Protocol: "TCP", Timeout: time.Second})

	ips, err := d.LookupIP(context.Background(), "play.example.com")
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("203.0.113.7")}, ips)
}

func TestDNSFailover(t *testing.T) {
	d := newTestDNS(deadServer(t), startDNS(t))

	ips, err := d.LookupIP(context.Background(), "play.example.com")
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("203.0.113.7")}, ips)
}

func TestDNSCanceled(t *testing.T) {
	d := newTestDNS(startDNS(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.LookupSRV(ctx, "_minecraft._tcp.example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDNSServers(t *testing.T) {
	d := NewDNS(DNSOptions{Servers: []string{"1.1.1.1", " 9.9.9.9:5353 ", "", "[2606:4700::1111]"}})
	assert.Equal(t, []string{"1.1.1.1:53", "9.9.9.9:5353", "[2606:4700::1111]:53"}, d.Servers())

	assert.NotEmpty(t, NewDNS(DNSOptions{}).Servers())
}

func TestResolveOverDNS(t *testing.T) {
	r := New(newTestDNS(startDNS(t)))
	ctx := context.Background()

	cases := []struct {
		name   string
		in     models.ServerAddress
		want   string
		target string
		srv    bool
	}{
		{"java srv", models.ServerAddress{Host: "example.com", Edition: models.Java, Port: 25565}, "203.0.113.7:25566", "play.example.com", true},
		{"java plain", models.ServerAddress{Host: "play.example.com", Edition: models.Java}, "203.0.113.7:25565", "play.example.com", false},
		{"java v6", models.ServerAddress{Host: "v6.example.com", Edition: models.Java}, "[2001:db8::7]:25565", "v6.example.com", false},
		{"bedrock ignores srv", models.ServerAddress{Host: "example.com", Edition: models.Bedrock}, "198.51.100.1:19132", "example.com", false},
		{"bedrock v6", models.ServerAddress{Host: "v6.example.com", Edition: models.Bedrock}, "[2001:db8::7]:19133", "v6.example.com", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ep, err := r.Resolve(ctx, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ep.Addr.String())
			assert.Equal(t, tc.target, ep.Target)
			assert.Equal(t, tc.srv, ep.SRV)
		})
	}

	_, err := r.Resolve(ctx, models.ServerAddress{Host: "missing.example.com", Edition: models.Java})
	assert.ErrorIs(t, err, models.ErrResolution)
}
