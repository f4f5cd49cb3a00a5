package java

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/mcstatus/internal/models"
)

// decodeHandshake parses a handshake body the way a server would.
func decodeHandshake(p Packet) (Handshake, error) {
	var (
		version, next pk.VarInt
		address       pk.String
		port          pk.UnsignedShort
	)
	if err := p.Scan(&version, &address, &port, &next); err != nil {
		return Handshake{}, err
	}

	return Handshake{
		ProtocolVersion: int32(version),
		ServerAddress:   string(address),
		ServerPort:      uint16(port),
		NextState:       int32(next),
	}, nil
}

func encodeFrames(t *testing.T, ps ...Packet) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, WritePacket(&buf, ps...))

	return buf.Bytes()
}

func TestHandshakeLayout(t *testing.T) {
	hs := Handshake{
		ProtocolVersion: 47,
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       nextStateStatus,
	}

	data := encodeFrames(t, hs.Packet())

	// length 15, id 0, protocol 47, address, port 25565, next state status
	want := []byte{0x0F, 0x00, 0x2F, 0x09}
	want = append(want, "localhost"...)
	want = append(want, 0x63, 0xDD, 0x01)
	assert.Equal(t, want, data)

	p, err := ReadPacket(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, idHandshake, p.ID)

	got, err := decodeHandshake(p)
	require.NoError(t, err)
	assert.Equal(t, hs, got)
}

func TestStatusRequestFrame(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x00}, encodeFrames(t, statusRequestPacket()))
}

func TestPingFrame(t *testing.T) {
	want := []byte{0x09, 0x01, 0, 0, 0, 0, 0, 0, 0x01, 0x02}
	assert.Equal(t, want, encodeFrames(t, pingPacket(0x0102)))
}

func TestReadPacketSequence(t *testing.T) {
	status := `{"version":{"name":"1.20.4"}}`
	stream := encodeFrames(t,
		Packet{ID: 0x05, Data: []byte{1, 2, 3}},
		pk.Marshal(idStatusResponse, pk.String(status)),
	)

	r := bufio.NewReader(bytes.NewReader(stream))

	p, err := ReadPacket(r)
	require.NoError(t, err)
	assert.Equal(t, int32(0x05), p.ID)
	assert.Equal(t, []byte{1, 2, 3}, p.Data)

	p, err = ReadPacket(r)
	require.NoError(t, err)
	got, err := decodeStatusResponse(p)
	require.NoError(t, err)
	assert.Equal(t, status, got)

	_, err = ReadPacket(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadPacketFramingErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"zero_length", []byte{0x00}},
		{"too_large", []byte{0x81, 0x80, 0x80, 0x01}},
		{"negative_length", []byte{0xFB, 0xFF, 0xFF, 0xFF, 0x0F}},
		{"length_varint_too_long", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
		{"length_varint_overflow", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
		{"id_varint_truncated", []byte{0x01, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPacket(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, models.ErrDecode)
		})
	}
}

func TestReadPacketShortBody(t *testing.T) {
	_, err := ReadPacket(bytes.NewReader([]byte{0x05, 0x00, 0x01}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, models.ErrDecode)
}

func TestDecodePong(t *testing.T) {
	v, err := decodePong(pk.Marshal(idPong, pk.Long(1234567890123)))
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890123), v)

	_, err = decodePong(Packet{ID: idPong, Data: []byte{1, 2, 3}})
	assert.ErrorIs(t, err, models.ErrDecode)

	_, err = decodePong(pk.Marshal(idStatusResponse, pk.Long(1)))
	assert.ErrorIs(t, err, models.ErrProtocolMismatch)
}

func TestDecodeStatusResponseMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"length_past_end", []byte{0x10, '{'}},
		{"negative_length", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeStatusResponse(Packet{ID: idStatusResponse, Data: tt.data})
			assert.ErrorIs(t, err, models.ErrDecode)
		})
	}
}
