// Package java implements the client side of the Java edition Server List Ping
// on top of the go-mc packet codec: the handshake, the status request and the
// ping/pong round trip.
package java

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/models"
)

// DefaultTimeout bounds each phase of a query when the client has no timeout set.
const DefaultTimeout = 5 * time.Second

// State is a step of the status exchange.
type State int

// States in the order a query walks through them.
const (
	StateConnecting State = iota
	StateHandshakeSent
	StateStatusRequested
	StateAwaitingStatus
	StateStatusReceived
	StatePingSent
	StateAwaitingPong
	StateDone
)

var stateNames = [...]string{
	"connecting", "handshake_sent", "status_requested", "awaiting_status",
	"status_received", "ping_sent", "awaiting_pong", "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Response is the outcome of a successful query.
type Response struct {
	// Ping is nil when the ping round trip failed after the status was received.
	Ping *time.Duration

	// Status is the raw status text sent by the server, usually JSON.
	Status string
}

// Client queries Java edition servers. The zero value is ready to use.
type Client struct {
	// Dial opens the TCP connection; nil uses a net.Dialer.
	Dial func(ctx context.Context, network, address string) (net.Conn, error)

	// Timeout bounds connecting, awaiting the status and awaiting the pong,
	// each measured from the start of that phase.
	Timeout time.Duration
}

// NewClient returns a Client with the given per-phase timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{Timeout: timeout}
}

// Query performs the status exchange with the server at addr. host is the name the
// caller asked for and is sent in the handshake; version zero lets the server
// answer with its own protocol version.
func (c *Client) Query(ctx context.Context, host string, addr netip.AddrPort, version int32) (*Response, error) {
	s := &session{
		timeout: c.timeout(),
		log: log.With().
			Str("edition", string(models.Java)).
			Str("host", host).
			Str("addr", addr.String()).
			Logger(),
	}

	s.enter(StateConnecting)
	conn, err := c.dial(ctx, addr.String(), s.timeout)
	if err != nil {
		return nil, classify(ctx, "connect "+addr.String(), err)
	}
	defer func() { _ = conn.Close() }()

	s.conn = conn
	s.r = bufio.NewReader(conn)

	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := s.requestStatus(ctx, host, addr.Port(), version); err != nil {
		return nil, classify(ctx, "request status", err)
	}

	status, err := s.awaitStatus(ctx)
	if err != nil {
		return nil, classify(ctx, "await status", err)
	}
	s.enter(StateStatusReceived)

	resp := &Response{Status: status}
	if ping, err := s.ping(ctx); err != nil {
		s.log.Debug().Err(classify(ctx, "ping", err)).Msg("Ping failed, keeping status")
	} else {
		resp.Ping = &ping
	}
	s.enter(StateDone)

	return resp, nil
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Client) dial(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.Dial != nil {
		return c.Dial(ctx, "tcp", address)
	}

	var d net.Dialer
	return d.DialContext(ctx, "tcp", address)
}

// session is the state of one query over one connection.
type session struct {
	conn    net.Conn
	r       *bufio.Reader
	log     zerolog.Logger
	timeout time.Duration
	state   State
}

func (s *session) enter(state State) {
	s.state = state
	s.log.Trace().Stringer("state", state).Msg("Java query state")
}

// arm sets a fresh deadline for the next phase. Cancellation of ctx wins over the
// new deadline even when it races with the SetDeadline call.
func (s *session) arm(ctx context.Context) {
	_ = s.conn.SetDeadline(time.Now().Add(s.timeout))
	if ctx.Err() != nil {
		_ = s.conn.SetDeadline(time.Now())
	}
}

func (s *session) requestStatus(ctx context.Context, host string, port uint16, version int32) error {
	s.arm(ctx)

	hs := Handshake{
		ProtocolVersion: version,
		ServerAddress:   host,
		ServerPort:      port,
		NextState:       nextStateStatus,
	}

	// Handshake and status request leave in a single write.
	if err := WritePacket(s.conn, hs.Packet(), statusRequestPacket()); err != nil {
		return err
	}
	s.enter(StateHandshakeSent)
	s.enter(StateStatusRequested)

	return nil
}

// awaitStatus reads frames until a status response arrives, skipping any other packet.
func (s *session) awaitStatus(ctx context.Context) (string, error) {
	s.enter(StateAwaitingStatus)
	s.arm(ctx)

	for {
		p, err := ReadPacket(s.r)
		if err != nil {
			return "", err
		}

		if p.ID != idStatusResponse {
			s.log.Debug().
				Int32("id", p.ID).
				Int("size", len(p.Data)).
				Msg("Skipping packet while awaiting status")
			continue
		}

		return decodeStatusResponse(p)
	}
}

// ping sends a ping and reads exactly one packet back, returning the round trip time.
func (s *session) ping(ctx context.Context) (time.Duration, error) {
	s.arm(ctx)

	if err := WritePacket(s.conn, pingPacket(time.Now().UnixMilli())); err != nil {
		return 0, err
	}
	sent := time.Now()
	s.enter(StatePingSent)

	s.enter(StateAwaitingPong)
	p, err := ReadPacket(s.r)
	if err != nil {
		return 0, err
	}
	elapsed := time.Since(sent)

	if _, err := decodePong(p); err != nil {
		return 0, err
	}

	return elapsed, nil
}

// classify wraps err with the error kind matching its cause.
func classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, models.ErrDecode), errors.Is(err, models.ErrProtocolMismatch):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %s: %w", models.ErrTransport, op, context.Canceled)
	case ctx.Err() != nil, errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %w", models.ErrTimeout, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", models.ErrTransport, op, err)
	}
}
