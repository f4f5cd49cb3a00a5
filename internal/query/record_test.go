package query

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/mcstatus/internal/bedrock"
	"github.com/woozymasta/mcstatus/internal/models"
)

func TestJavaRecord(t *testing.T) {
	now := time.Now()
	ping := 20 * time.Millisecond
	res := &JavaResult{
		Status:   `{"version":{"name":"Paper 1.20.1","protocol":763},"players":{"online":3,"max":50}}`,
		Ping:     &ping,
		Endpoint: models.Endpoint{Addr: netip.MustParseAddrPort("203.0.113.7:25566")},
	}

	rec := res.Record("example.com", 0, now)
	assert.Equal(t, models.Java, rec.Edition)
	assert.Equal(t, "example.com", rec.Hostname)
	assert.Equal(t, 0, rec.Port)
	assert.Equal(t, "203.0.113.7:25566", rec.Address)
	assert.Equal(t, "Paper 1.20.1", rec.Version)
	assert.Equal(t, int64(3), rec.Players)
	assert.Equal(t, int64(50), rec.MaxPlayers)
	require.NotNil(t, rec.Latency)
	assert.InDelta(t, 0.02, *rec.Latency, 1e-9)
	assert.True(t, rec.Online)

	res.Status = "not json"
	res.Ping = nil
	rec = res.Record("example.com", 25565, now)
	assert.Empty(t, rec.Version)
	assert.Nil(t, rec.Latency)
	assert.True(t, rec.Online)
	assert.Equal(t, 25565, rec.Port)
}

func TestBedrockRecord(t *testing.T) {
	st, err := bedrock.ParseStatus(samplePayload)
	require.NoError(t, err)

	rec := (&BedrockResult{Status: st, Ping: 100 * time.Millisecond}).Record("be.example", 19132, time.Now())
	assert.Equal(t, models.Bedrock, rec.Edition)
	assert.Equal(t, "1.16", rec.Version)
	assert.Equal(t, int64(5), rec.Players)
	assert.Equal(t, int64(20), rec.MaxPlayers)
	assert.InDelta(t, 0.1, *rec.Latency, 1e-9)
}

func TestFailedRecord(t *testing.T) {
	rec := FailedRecord(models.Bedrock, "down.example", 0, errors.New("timeout"), time.Now())
	assert.False(t, rec.Online)
	assert.Equal(t, "timeout", rec.LastError)
	assert.Nil(t, rec.Latency)
}

func TestRecordNormalizesHostname(t *testing.T) {
	now := time.Now()
	java := &JavaResult{Status: "{}", Endpoint: models.Endpoint{Addr: netip.MustParseAddrPort("203.0.113.7:25565")}}
	assert.Equal(t, "mc.example.com", java.Record("MC.Example.com.", 0, now).Hostname)

	be := &BedrockResult{Endpoint: models.Endpoint{Addr: netip.MustParseAddrPort("203.0.113.7:19132")}}
	assert.Equal(t, "be.example", be.Record("BE.example", 0, now).Hostname)

	assert.Equal(t, "down.example", FailedRecord(models.Java, " Down.Example ", 0, nil, now).Hostname)
}
