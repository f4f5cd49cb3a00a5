// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/mcstatus/internal/logger"
	"github.com/woozymasta/mcstatus/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Server    Server        `group:"Server Options" env-namespace:"MCSTATUS"`
	Query     Query         `group:"Query Options" namespace:"query" env-namespace:"MCSTATUS_QUERY"`
	DNS       DNS           `group:"DNS Options" namespace:"dns" env-namespace:"MCSTATUS_DNS"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"MCSTATUS_DB"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"MCSTATUS_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"MCSTATUS_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"MCSTATUS_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration.
type Server struct {
	// betteralign:ignore

	Address    string   `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AuthToken  string   `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Admin API token, admin API is disabled when empty"`
	TrustProxy bool     `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
	CORSOrigin string   `long:"cors-origin" env:"CORS_ORIGIN" description:"Value of Access-Control-Allow-Origin" default:"*"`
	DenyHosts  []string `long:"deny-host" env:"DENY_HOSTS" description:"Hostnames that are never queried" env-delim:","`
}

// Query holds protocol client configuration.
type Query struct {
	// betteralign:ignore

	JavaTimeout    time.Duration `long:"java-timeout" env:"JAVA_TIMEOUT" description:"Java edition per-phase timeout" default:"5s"`
	BedrockTimeout time.Duration `long:"bedrock-timeout" env:"BEDROCK_TIMEOUT" description:"Bedrock edition ping timeout" default:"5s"`
	DenyNetworks   []string      `long:"deny-network" env:"DENY_NETWORKS" description:"Networks (CIDR) that resolved endpoints may not be in" env-delim:","`
}

// DNS holds resolver configuration.
type DNS struct {
	// betteralign:ignore

	Servers  []string      `long:"server" env:"SERVERS" description:"Nameservers host[:port], defaults to /etc/resolv.conf" env-delim:","`
	Timeout  time.Duration `long:"timeout" env:"TIMEOUT" description:"Timeout of one DNS exchange" default:"2s"`
	Protocol string        `long:"protocol" env:"PROTOCOL" description:"DNS transport" choice:"auto" choice:"udp" choice:"tcp" default:"auto"`
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path          string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite history database, empty disables history" default:"mcstatus.db"`
	PruneBefore   time.Duration `long:"prune-before" description:"Delete servers not seen for the given duration and exit"`
	PruneOffline  bool          `long:"prune-offline" description:"Delete servers whose last query failed and exit"`
	Recheck       bool          `long:"recheck" description:"Query every stored server again and exit"`
	GenerateCount int           `long:"gen-fake-data" hidden:"true"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file, empty disables GeoIP" default:"mcstatus.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	// betteralign:ignore

	Count  int           `long:"count" env:"COUNT" description:"Queries allowed per client IP within the window, 0 disables" default:"30"`
	Window time.Duration `long:"window" env:"WINDOW" description:"Rate limit window duration" default:"1m"`
}

// Maintenance reports whether a one-shot maintenance task was requested.
func (s Storage) Maintenance() bool {
	return s.PruneBefore > 0 || s.PruneOffline || s.Recheck || s.GenerateCount > 0
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print(os.Stdout)
		os.Exit(0)
	}

	return cfg
}

// ParseArgs parses args and the environment without exiting.
func ParseArgs(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Query.JavaTimeout <= 0 {
		return fmt.Errorf("--query-java-timeout must be positive, got %s", c.Query.JavaTimeout)
	}
	if c.Query.BedrockTimeout <= 0 {
		return fmt.Errorf("--query-bedrock-timeout must be positive, got %s", c.Query.BedrockTimeout)
	}
	if c.RateLimit.Count > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("--rate-limit-window must be positive when --rate-limit-count is set")
	}
	if c.Storage.Path == "" && c.Storage.Maintenance() {
		return fmt.Errorf("maintenance tasks require --db-path")
	}

	for i, h := range c.Server.DenyHosts {
		c.Server.DenyHosts[i] = strings.ToLower(strings.TrimSpace(h))
	}

	return nil
}
