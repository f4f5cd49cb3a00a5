package bedrock

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/mcstatus/internal/models"
)

type fakePinger struct {
	err     error
	data    string
	address string
	delay   time.Duration
}

func (f *fakePinger) PingContext(ctx context.Context, address string) ([]byte, error) {
	f.address = address

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.data), nil
}

func TestQuerySuccess(t *testing.T) {
	p := &fakePinger{data: examplePayload, delay: 10 * time.Millisecond}
	c := &Client{Pinger: p, Timeout: time.Second}

	resp, err := c.Query(context.Background(), netip.MustParseAddrPort("192.0.2.10:19132"))
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.10:19132", p.address)
	assert.Equal(t, uint32(5), resp.Status.PlayerCount)
	assert.Equal(t, uint32(20), resp.Status.MaxPlayerCount)
	assert.GreaterOrEqual(t, resp.Ping, 10*time.Millisecond)
}

func TestQueryIPv6Address(t *testing.T) {
	p := &fakePinger{data: examplePayload}
	c := &Client{Pinger: p, Timeout: time.Second}

	_, err := c.Query(context.Background(), netip.MustParseAddrPort("[2001:db8::1]:19133"))
	require.NoError(t, err)
	assert.Equal(t, "[2001:db8::1]:19133", p.address)
}

func TestQueryTimeout(t *testing.T) {
	c := &Client{Pinger: &fakePinger{data: examplePayload, delay: time.Second}, Timeout: 50 * time.Millisecond}

	resp, err := c.Query(context.Background(), netip.MustParseAddrPort("192.0.2.10:19132"))
	assert.ErrorIs(t, err, models.ErrTimeout)
	assert.Nil(t, resp)
}

func TestQueryTransportError(t *testing.T) {
	c := &Client{Pinger: &fakePinger{err: errors.New("connection refused")}, Timeout: time.Second}

	_, err := c.Query(context.Background(), netip.MustParseAddrPort("192.0.2.10:19132"))
	assert.ErrorIs(t, err, models.ErrTransport)
}

func TestQueryMalformedPong(t *testing.T) {
	c := &Client{Pinger: &fakePinger{data: "MCPE;only;three"}, Timeout: time.Second}

	resp, err := c.Query(context.Background(), netip.MustParseAddrPort("192.0.2.10:19132"))
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
	assert.Nil(t, resp)
}

func TestNewClientUsesRakNet(t *testing.T) {
	c := NewClient(time.Second)
	assert.NotNil(t, c.Pinger)
	assert.Equal(t, time.Second, c.Timeout)
}
