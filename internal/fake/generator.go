// Package fake provides utilities for generating random server history for testing and development purposes.
package fake

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/models"
)

// Store is the part of the history repository the generator writes to.
type Store interface {
	UpsertServer(ctx context.Context, s models.ServerRecord) error
}

var (
	javaVersions    = []string{"1.8.9", "1.12.2", "1.16.5", "1.19.4", "1.20.1", "1.20.4", "Paper 1.21.1"}
	bedrockVersions = []string{"1.19.80", "1.20.15", "1.20.40", "1.21.2"}
	hostPrefixes    = []string{"play", "mc", "survival", "skyblock", "hub", "creative"}
	domains         = []string{"example.com", "example.net", "example.org", "craft.test", "blocks.test"}

	countriesHigh = []string{"US", "DE", "RU", "BR", "FR", "GB", "PL"}
	countriesMid  = []string{"CA", "AU", "NL", "SE", "JP", "KR", "TR"}
	countriesLow  = []string{"ZA", "AR", "MX", "IN", "ID", "VN", "CH"}
)

// GenerateData populates the storage with a specified number of randomized server records.
// It simulates both editions, custom ports, countries, offline servers and repeated queries.
func GenerateData(ctx context.Context, store Store, count int) int {
	written := 0

	for i := 0; i < count; i++ {
		// Random date-time in 30 days range
		seen := time.Now().
			Add(-time.Duration(rand.IntN(30)) * 24 * time.Hour).
			Add(-time.Duration(rand.IntN(1440)) * time.Minute)

		rec := Record(seen)
		if err := store.UpsertServer(ctx, rec); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake server")
			continue
		}
		written++

		// 30% chance of being queried again later
		if rand.Float32() < 0.3 {
			rec.LastSeen = rec.LastSeen.Add(time.Duration(rand.IntN(120)) * time.Minute)
			_ = store.UpsertServer(ctx, rec)
		}
	}

	log.Info().Int("count", written).Msg("Fake servers generated")

	return written
}

// Record returns one random server record last seen at seen.
func Record(seen time.Time) models.ServerRecord {
	rec := models.ServerRecord{
		Edition:     models.Java,
		Hostname:    fmt.Sprintf("%s%d.%s", pick(hostPrefixes), rand.IntN(50), pick(domains)),
		CountryCode: country(),
		FirstSeen:   seen.Add(-7 * 24 * time.Hour),
		LastSeen:    seen,
		Online:      rand.Float32() >= 0.15,
	}

	port := int(models.DefaultJavaPort)
	rec.Version = pick(javaVersions)
	if rand.Float32() < 0.35 {
		rec.Edition = models.Bedrock
		port = int(models.DefaultBedrockPort)
		rec.Version = pick(bedrockVersions)
	}

	// 20% chance of a custom port
	if rand.Float32() < 0.2 {
		rec.Port = port + 1 + rand.IntN(100)
		port = rec.Port
	}

	rec.Address = fmt.Sprintf("%d.%d.%d.%d:%d", rand.IntN(220)+1, rand.IntN(255), rand.IntN(255), rand.IntN(255), port)

	if rec.Online {
		latency := 0.005 + rand.Float64()*0.3
		rec.Latency = &latency
		rec.MaxPlayers = int64(20 * (1 + rand.IntN(10)))
		rec.Players = rand.Int64N(rec.MaxPlayers + 1)
	} else {
		rec.LastError = "timeout: status: i/o timeout"
	}

	return rec
}

func country() string {
	roll := rand.Float32()
	switch {
	case roll < 0.70:
		return pick(countriesHigh)
	case roll < 0.90:
		return pick(countriesMid)
	default:
		return pick(countriesLow)
	}
}

func pick(list []string) string {
	return list[rand.IntN(len(list))]
}
