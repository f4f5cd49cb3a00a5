package query

import (
	"encoding/json"
	"time"

	"github.com/woozymasta/mcstatus/internal/models"
)

// javaSummary is the part of the Java status document kept in the history.
type javaSummary struct {
	Version struct {
		Name string `json:"name"`
	} `json:"version"`
	Players struct {
		Online int64 `json:"online"`
		Max    int64 `json:"max"`
	} `json:"players"`
}

// Record converts the result into a history row for host and the requested port.
// host is stored normalized. The status document is opaque to the query path; unparseable documents leave the summary empty.
func (r *JavaResult) Record(host string, port uint16, now time.Time) models.ServerRecord {
	rec := models.ServerRecord{
		Edition:  models.Java,
		Hostname: models.NormalizeHost(host),
		Port:     int(port),
		Address:  r.Endpoint.Addr.String(),
		Online:   true,
		LastSeen: now,
	}

	if r.Ping != nil {
		sec := r.Ping.Seconds()
		rec.Latency = &sec
	}

	var sum javaSummary
	if err := json.Unmarshal([]byte(r.Status), &sum); err == nil {
		rec.Version = sum.Version.Name
		rec.Players = sum.Players.Online
		rec.MaxPlayers = sum.Players.Max
	}

	return rec
}

// Record converts the result into a history row for host and the requested port.
func (r *BedrockResult) Record(host string, port uint16, now time.Time) models.ServerRecord {
	sec := r.Ping.Seconds()
	rec := models.ServerRecord{
		Edition:  models.Bedrock,
		Hostname: models.NormalizeHost(host),
		Port:     int(port),
		Address:  r.Endpoint.Addr.String(),
		Latency:  &sec,
		Online:   true,
		LastSeen: now,
	}

	if r.Status != nil {
		rec.Version = r.Status.Version
		rec.Players = int64(r.Status.PlayerCount)
		rec.MaxPlayers = int64(r.Status.MaxPlayerCount)
	}

	return rec
}

// FailedRecord is the history row of a failed query.
func FailedRecord(edition models.Edition, host string, port uint16, err error, now time.Time) models.ServerRecord {
	rec := models.ServerRecord{
		Edition:  edition,
		Hostname: models.NormalizeHost(host),
		Port:     int(port),
		LastSeen: now,
	}
	if err != nil {
		rec.LastError = err.Error()
	}

	return rec
}
