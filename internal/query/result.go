package query

import (
	"encoding/json"
	"time"

	"github.com/woozymasta/mcstatus/internal/bedrock"
	"github.com/woozymasta/mcstatus/internal/models"
)

// JavaResult is a Java status with an optional round trip time.
type JavaResult struct {
	Ping     *time.Duration
	Status   string
	Endpoint models.Endpoint
}

// BedrockResult is a Bedrock status with its mandatory round trip time.
type BedrockResult struct {
	Status   *bedrock.Status
	Endpoint models.Endpoint
	Ping     time.Duration
}

type javaJSON struct {
	Ping *float64 `json:"ping"`
	Resp string   `json:"resp"`
}

type bedrockJSON struct {
	Resp *bedrock.Status `json:"resp"`
	Ping float64         `json:"ping"`
}

// MarshalJSON renders {"resp": <status text>, "ping": <seconds|null>}.
func (r *JavaResult) MarshalJSON() ([]byte, error) {
	out := javaJSON{Resp: r.Status}
	if r.Ping != nil {
		sec := r.Ping.Seconds()
		out.Ping = &sec
	}

	return json.Marshal(out)
}

// MarshalJSON renders {"resp": <payload>, "ping": <seconds>}.
func (r *BedrockResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(bedrockJSON{Resp: r.Status, Ping: r.Ping.Seconds()})
}
