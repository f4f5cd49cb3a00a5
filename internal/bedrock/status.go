package bedrock

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/woozymasta/mcstatus/internal/models"
)

// statusFields is the number of positional fields in a server data string.
const statusFields = 12

var (
	minServerID = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxServerID = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
)

// Status is the server data string of an unconnected pong, split into its fields.
type Status struct {
	// ServerID is a signed 128-bit value; servers emit ids beyond the 64-bit ranges.
	ServerID *big.Int `json:"server_id"`

	Edition  string `json:"edition"`
	MOTD1    string `json:"motd1"`
	MOTD2    string `json:"motd2"`
	Version  string `json:"version"`
	GameMode string `json:"gamemode"`

	ProtocolVersion uint32 `json:"pvn"`
	PlayerCount     uint32 `json:"player_count"`
	MaxPlayerCount  uint32 `json:"max_player_count"`
	Port            int32  `json:"port"`
	Port6           int32  `json:"port6"`
	GameModeNum     uint8  `json:"gamemode_num"`
}

// ParseStatus parses a semicolon separated server data string. Every one of the
// twelve fields is required; any missing, extra or unparsable field fails the
// whole payload with models.ErrMalformedResponse.
//
// Field order: edition, MOTD line 1, protocol version, version name, player
// count, max player count, server id, MOTD line 2, game mode, game mode id,
// IPv4 port, IPv6 port.
func ParseStatus(data string) (*Status, error) {
	fields := strings.Split(data, ";")
	if len(fields) != statusFields {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", models.ErrMalformedResponse, statusFields, len(fields))
	}

	p := fieldParser{fields: fields}
	st := &Status{
		Edition:         fields[0],
		MOTD1:           fields[1],
		ProtocolVersion: uint32(p.unsigned(2, "protocol version", 32)),
		Version:         fields[3],
		PlayerCount:     uint32(p.unsigned(4, "player count", 32)),
		MaxPlayerCount:  uint32(p.unsigned(5, "max player count", 32)),
		ServerID:        p.serverID(6),
		MOTD2:           fields[7],
		GameMode:        fields[8],
		GameModeNum:     uint8(p.unsigned(9, "game mode id", 8)),
		Port:            int32(p.signed(10, "port", 32)),
		Port6:           int32(p.signed(11, "port6", 32)),
	}
	if p.err != nil {
		return nil, p.err
	}

	return st, nil
}

// String joins the fields back into a server data string.
func (s *Status) String() string {
	id := "0"
	if s.ServerID != nil {
		id = s.ServerID.String()
	}

	return strings.Join([]string{
		s.Edition,
		s.MOTD1,
		strconv.FormatUint(uint64(s.ProtocolVersion), 10),
		s.Version,
		strconv.FormatUint(uint64(s.PlayerCount), 10),
		strconv.FormatUint(uint64(s.MaxPlayerCount), 10),
		id,
		s.MOTD2,
		s.GameMode,
		strconv.FormatUint(uint64(s.GameModeNum), 10),
		strconv.FormatInt(int64(s.Port), 10),
		strconv.FormatInt(int64(s.Port6), 10),
	}, ";")
}

// fieldParser keeps the first parse failure so fields can be parsed inline.
type fieldParser struct {
	err    error
	fields []string
}

func (p *fieldParser) fail(i int, name string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: field %d (%s) %q: %w", models.ErrMalformedResponse, i, name, p.fields[i], err)
	}
}

func (p *fieldParser) unsigned(i int, name string, bits int) uint64 {
	v, err := strconv.ParseUint(p.fields[i], 10, bits)
	if err != nil {
		p.fail(i, name, err)
	}
	return v
}

func (p *fieldParser) signed(i int, name string, bits int) int64 {
	v, err := strconv.ParseInt(p.fields[i], 10, bits)
	if err != nil {
		p.fail(i, name, err)
	}
	return v
}

func (p *fieldParser) serverID(i int) *big.Int {
	v, ok := new(big.Int).SetString(p.fields[i], 10)
	if !ok {
		p.fail(i, "server id", strconv.ErrSyntax)
		return nil
	}
	if v.Cmp(minServerID) < 0 || v.Cmp(maxServerID) > 0 {
		p.fail(i, "server id", strconv.ErrRange)
		return nil
	}

	return v
}
