package server

import (
	"context"
	"net/netip"
	"sync"

	"github.com/woozymasta/mcstatus/internal/models"
	"github.com/woozymasta/mcstatus/internal/query"
)

// Querier answers status queries for both editions.
type Querier interface {
	QueryJava(ctx context.Context, host string, port uint16, version uint32) (*query.JavaResult, error)
	QueryBedrock(ctx context.Context, host string, port uint16) (*query.BedrockResult, error)
}

// Store is the history repository used by the recording workers and the admin API.
type Store interface {
	UpsertServer(ctx context.Context, s models.ServerRecord) error
	GetServers(ctx context.Context) ([]models.ServerRecord, error)
	DeleteServer(ctx context.Context, edition models.Edition, hostname string, port int) (bool, error)
}

// Locator maps an address to an ISO country code.
type Locator interface {
	CountryCode(ip netip.Addr) string
}

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests and background history recording.
type Server struct {
	// querier runs the live status queries behind /java and /bedrock.
	querier Querier

	// storage receives one history row per query. Nil disables history and the admin API.
	storage Store

	// limiter is shared by /java and /bedrock. Nil disables rate limiting.
	limiter *ipLimiter

	// geoip resolves endpoint addresses to country codes. It can be nil.
	geoip Locator

	// deniedHosts is a set of hashed lower-cased hostnames (using xxhash) that are never queried.
	deniedHosts map[uint64]struct{}

	// queue passes history records from HTTP handlers to background workers.
	queue chan historyJob

	// shutdown broadcasts a stop signal to background goroutines during a graceful shutdown.
	shutdown chan struct{}

	// authToken is the secret token required to access administrative API endpoints.
	// Empty disables the admin API.
	authToken string

	// corsOrigin is the Access-Control-Allow-Origin value sent with every response.
	corsOrigin string

	// mu guards closed against concurrent enqueues during shutdown.
	mu sync.RWMutex

	// wg is used to wait for all background workers to finish processing
	// before the server shuts down completely.
	wg sync.WaitGroup

	// trustProxy indicates whether the server should trust headers like X-Forwarded-For
	// or CF-Connecting-IP when determining the client's real IP address.
	trustProxy bool

	// closed is set once the history queue is closed.
	closed bool
}

// historyJob is one query outcome waiting to be written to the history.
type historyJob struct {
	// Record is the row to upsert, without the country code.
	Record models.ServerRecord

	// IP is the endpoint address used for the GeoIP lookup. Zero when resolution failed.
	IP netip.Addr
}
