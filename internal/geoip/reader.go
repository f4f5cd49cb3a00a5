package geoip

import (
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

// Provider wraps the GeoIP2 database reader to provide country lookup functionality.
// A nil Provider answers every lookup with an empty code.
type Provider struct {
	db *geoip2.Reader
}

// Open initializes the GeoIP database reader from a specific file path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db}, nil
}

// Close closes the underlying GeoIP database reader.
func (p *Provider) Close() error {
	if p == nil {
		return nil
	}

	return p.db.Close()
}

// CountryCode looks up the ISO country code (e.g., "US", "DE") of ip.
// It returns an empty string if the country cannot be determined.
func (p *Provider) CountryCode(ip netip.Addr) string {
	if p == nil || !ip.IsValid() {
		return ""
	}

	record, err := p.db.Country(ip.Unmap().AsSlice())
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}
