package query

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/seancfoley/ipaddress-go/ipaddr"
	"github.com/woozymasta/mcstatus/internal/models"
)

// Guard rejects endpoints inside denied networks. A nil Guard allows everything.
type Guard struct {
	blocks []*ipaddr.IPAddress
}

// NewGuard parses networks in CIDR notation. Plain addresses deny a single host.
func NewGuard(networks []string) (*Guard, error) {
	g := &Guard{}

	for _, n := range networks {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}

		addr, err := ipaddr.NewIPAddressString(n).ToAddress()
		if err != nil {
			return nil, fmt.Errorf("invalid network %q: %w", n, err)
		}
		if addr == nil {
			return nil, fmt.Errorf("invalid network %q", n)
		}

		g.blocks = append(g.blocks, addr.ToPrefixBlock())
	}

	return g, nil
}

// Len returns the number of denied networks.
func (g *Guard) Len() int {
	if g == nil {
		return 0
	}

	return len(g.blocks)
}

// Check returns an error wrapping models.ErrDenied when ip is inside a denied network.
func (g *Guard) Check(ip netip.Addr) error {
	if g.Len() == 0 {
		return nil
	}

	addr, err := ipaddr.NewIPAddressFromNetIP(ip.Unmap().AsSlice())
	if err != nil {
		return fmt.Errorf("%w: %s: %w", models.ErrDenied, ip, err)
	}

	for _, block := range g.blocks {
		if block.Contains(addr) {
			return fmt.Errorf("%w: %s is inside %s", models.ErrDenied, ip, block)
		}
	}

	return nil
}
