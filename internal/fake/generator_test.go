package fake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/woozymasta/mcstatus/internal/models"
)

type memStore struct {
	records []models.ServerRecord
}

func (m *memStore) UpsertServer(_ context.Context, s models.ServerRecord) error {
	m.records = append(m.records, s)
	return nil
}

func TestGenerateData(t *testing.T) {
	store := &memStore{}

	assert.Equal(t, 50, GenerateData(context.Background(), store, 50))
	assert.GreaterOrEqual(t, len(store.records), 50)
}

func TestRecord(t *testing.T) {
	seen := time.Now()

	for i := 0; i < 200; i++ {
		rec := Record(seen)

		assert.True(t, rec.Edition.Valid())
		assert.NotEmpty(t, rec.Hostname)
		assert.NotEmpty(t, rec.Address)
		assert.Len(t, rec.CountryCode, 2)
		assert.Equal(t, seen, rec.LastSeen)
		assert.True(t, rec.FirstSeen.Before(rec.LastSeen))

		if rec.Online {
			assert.NotNil(t, rec.Latency)
			assert.Empty(t, rec.LastError)
			assert.LessOrEqual(t, rec.Players, rec.MaxPlayers)
		} else {
			assert.Nil(t, rec.Latency)
			assert.NotEmpty(t, rec.LastError)
		}
	}
}
