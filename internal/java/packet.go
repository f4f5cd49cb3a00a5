package java

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/woozymasta/mcstatus/internal/models"
)

// maxPacketLen caps the declared length of a single frame.
const maxPacketLen = 1 << 21

// noCompression is the go-mc threshold for plain frames.
const noCompression = -1

// Packet ids used by the handshaking and status phases.
const (
	idHandshake      int32 = 0x00
	idStatusRequest  int32 = 0x00
	idStatusResponse int32 = 0x00
	idPing           int32 = 0x01
	idPong           int32 = 0x01
)

// nextStateStatus asks the server to switch to the status phase after the handshake.
const nextStateStatus int32 = 1

// Packet is one frame: its id and the body bytes that follow it.
type Packet = pk.Packet

// Handshake is the first serverbound packet of every connection.
type Handshake struct {
	ServerAddress   string
	ProtocolVersion int32
	NextState       int32
	ServerPort      uint16
}

// Packet encodes the handshake body.
func (h Handshake) Packet() Packet {
	return pk.Marshal(idHandshake,
		pk.VarInt(h.ProtocolVersion),
		pk.String(h.ServerAddress),
		pk.UnsignedShort(h.ServerPort),
		pk.VarInt(h.NextState),
	)
}

func statusRequestPacket() Packet {
	return pk.Marshal(idStatusRequest)
}

func pingPacket(payload int64) Packet {
	return pk.Marshal(idPing, pk.Long(payload))
}

// WritePacket frames ps and sends them to w in a single write.
func WritePacket(w io.Writer, ps ...Packet) error {
	var buf bytes.Buffer
	for i := range ps {
		if err := ps[i].Pack(&buf, noCompression); err != nil {
			return fmt.Errorf("pack packet 0x%02X: %w", ps[i].ID, err)
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write packets: %w", err)
	}

	return nil
}

// packetReader is satisfied by *bufio.Reader and *bytes.Reader.
type packetReader interface {
	io.Reader
	io.ByteReader
}

// ReadPacket reads one frame from r. Framing violations wrap models.ErrDecode,
// I/O failures are returned as is. The length prefix is checked against
// maxPacketLen before the body is buffered.
func ReadPacket(r packetReader) (Packet, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		if errors.Is(err, errVarIntTooLong) {
			return Packet{}, fmt.Errorf("%w: packet length: %w", models.ErrDecode, err)
		}
		return Packet{}, err
	}
	if length < 1 || length > maxPacketLen {
		return Packet{}, fmt.Errorf("%w: packet length %d out of range", models.ErrDecode, length)
	}

	frame := make([]byte, length)
	if _, err := io.ReadFull(r, frame); err != nil {
		return Packet{}, err
	}

	body := bytes.NewReader(frame)
	var id pk.VarInt
	if _, err := id.ReadFrom(body); err != nil {
		return Packet{}, fmt.Errorf("%w: packet id: %w", models.ErrDecode, err)
	}

	return Packet{ID: int32(id), Data: frame[len(frame)-body.Len():]}, nil
}

// checkString verifies that the string prefix at the start of data fits in data.
func checkString(data []byte) error {
	r := bytes.NewReader(data)

	var n pk.VarInt
	if _, err := n.ReadFrom(r); err != nil {
		return fmt.Errorf("string length: %w", err)
	}
	if n < 0 || int(n) > r.Len() {
		return fmt.Errorf("string length %d out of range (%d bytes left)", n, r.Len())
	}

	return nil
}

// decodeStatusResponse extracts the status text of a status response.
func decodeStatusResponse(p Packet) (string, error) {
	if err := checkString(p.Data); err != nil {
		return "", fmt.Errorf("%w: status response: %w", models.ErrDecode, err)
	}

	var s pk.String
	if err := p.Scan(&s); err != nil {
		return "", fmt.Errorf("%w: status response: %w", models.ErrDecode, err)
	}

	return string(s), nil
}

// decodePong validates a packet as a pong and returns its echoed payload.
func decodePong(p Packet) (int64, error) {
	if p.ID != idPong {
		return 0, fmt.Errorf("%w: expected pong 0x%02X, got 0x%02X", models.ErrProtocolMismatch, idPong, p.ID)
	}

	var v pk.Long
	if err := p.Scan(&v); err != nil {
		return 0, fmt.Errorf("%w: pong payload: %w", models.ErrDecode, err)
	}

	return int64(v), nil
}
