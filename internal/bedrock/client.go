// Package bedrock queries Bedrock edition servers with a single RakNet unconnected
// ping and parses the server data string of the pong.
package bedrock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sandertv/go-raknet"
	"github.com/woozymasta/mcstatus/internal/models"
)

// DefaultTimeout bounds the ping/pong exchange when the client has no timeout set.
const DefaultTimeout = 5 * time.Second

// Pinger sends an unconnected ping and returns the pong server data.
// raknet.Dialer satisfies it.
type Pinger interface {
	PingContext(ctx context.Context, address string) ([]byte, error)
}

// Response is a parsed pong and the measured round trip time.
type Response struct {
	Status *Status
	Ping   time.Duration
}

// Client queries Bedrock edition servers.
type Client struct {
	// Pinger performs the datagram exchange; nil uses a raknet.Dialer.
	Pinger Pinger

	// Timeout bounds the whole exchange.
	Timeout time.Duration
}

// NewClient returns a Client sending pings through go-raknet.
func NewClient(timeout time.Duration) *Client {
	return &Client{Pinger: newDialer(), Timeout: timeout}
}

func newDialer() raknet.Dialer {
	return raknet.Dialer{ErrorLog: slog.New(slog.DiscardHandler)}
}

// Query sends one unconnected ping to addr. There is no retry: a lost datagram
// surfaces as a timeout.
func (c *Client) Query(ctx context.Context, addr netip.AddrPort) (*Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pinger := c.Pinger
	if pinger == nil {
		pinger = newDialer()
	}

	sent := time.Now()
	data, err := pinger.PingContext(ctx, addr.String())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: ping %s: %w", models.ErrTimeout, addr, err)
		}
		return nil, fmt.Errorf("%w: ping %s: %w", models.ErrTransport, addr, err)
	}
	ping := time.Since(sent)

	status, err := ParseStatus(string(data))
	if err != nil {
		log.Debug().
			Err(err).
			Str("addr", addr.String()).
			Int("size", len(data)).
			Msg("Unparsable Bedrock pong")
		return nil, err
	}

	log.Trace().
		Str("addr", addr.String()).
		Dur("ping", ping).
		Msg("Bedrock pong received")

	return &Response{Status: status, Ping: ping}, nil
}
