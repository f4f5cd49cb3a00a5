package query

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/mcstatus/internal/models"
)

func TestGuard(t *testing.T) {
	g, err := NewGuard([]string{"10.0.0.0/8", " 192.168.1.5 ", "", "fd00::/8"})
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	cases := []struct {
		ip     string
		denied bool
	}{
		{"10.1.2.3", true},
		{"192.168.1.5", true},
		{"192.168.1.6", false},
		{"::ffff:10.0.0.1", true},
		{"fd12::1", true},
		{"2001:db8::1", false},
		{"8.8.8.8", false},
	}

	for _, tc := range cases {
		t.Run(tc.ip, func(t *testing.T) {
			err := g.Check(netip.MustParseAddr(tc.ip))
			if tc.denied {
				assert.ErrorIs(t, err, models.ErrDenied)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGuardNilAllows(t *testing.T) {
	var g *Guard
	assert.Equal(t, 0, g.Len())
	assert.NoError(t, g.Check(netip.MustParseAddr("127.0.0.1")))
}

func TestGuardInvalid(t *testing.T) {
	_, err := NewGuard([]string{"not-a-network/99"})
	assert.Error(t, err)
}
