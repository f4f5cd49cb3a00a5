// Package models defines the data structures shared by the resolver, the protocol clients,
// the HTTP layer and the history storage.
package models

import (
	"net/netip"
	"strings"
	"time"
)

// Edition identifies a Minecraft server family.
type Edition string

const (
	// Java is the TCP based edition speaking the Server List Ping protocol.
	Java Edition = "java"

	// Bedrock is the UDP based edition answering RakNet unconnected pings.
	Bedrock Edition = "bedrock"
)

// Default ports used when the caller does not supply one.
const (
	DefaultJavaPort     uint16 = 25565
	DefaultBedrockPort  uint16 = 19132
	DefaultBedrockPort6 uint16 = 19133
)

// DefaultPort returns the port used for an edition when no port is supplied.
// Bedrock servers listen on a different default port for IPv6.
func (e Edition) DefaultPort(ip6 bool) uint16 {
	if e == Bedrock {
		if ip6 {
			return DefaultBedrockPort6
		}
		return DefaultBedrockPort
	}

	return DefaultJavaPort
}

// Valid reports whether e is a known edition.
func (e Edition) Valid() bool {
	return e == Java || e == Bedrock
}

// ServerAddress is the caller supplied address of a server.
type ServerAddress struct {
	// Host is a hostname or a literal IPv4/IPv6 address.
	Host string

	// Edition selects the DNS conventions and default ports.
	Edition Edition

	// Port overrides the edition default; zero means not supplied.
	Port uint16
}

// Endpoint is a concrete socket address produced by resolution.
type Endpoint struct {
	// Addr is the IP address and port to connect to.
	Addr netip.AddrPort

	// Target is the hostname that was looked up: the SRV target when an
	// SRV record was used, otherwise the requested host.
	Target string

	// SRV is true when the port and target came from an SRV record.
	SRV bool
}

// ServerRecord is a queried server stored in the history database.
type ServerRecord struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	Edition     Edition   `json:"edition"`
	Hostname    string    `json:"hostname"`
	Address     string    `json:"address"`
	CountryCode string    `json:"country_code"`
	Version     string    `json:"version"`
	LastError   string    `json:"last_error"`
	Latency     *float64  `json:"latency"`
	Count       int64     `json:"count"`
	Players     int64     `json:"players"`
	MaxPlayers  int64     `json:"max_players"`
	Port        int       `json:"port"`
	Online      bool      `json:"online"`
}

// NormalizeHost is the form of a hostname used as the history key and checked
// against the deny list: trimmed, lower case, without the root dot.
func NormalizeHost(host string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
}
