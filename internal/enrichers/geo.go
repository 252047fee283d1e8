package enrichers

import (
	"net/netip"
	"sort"
)

// GeoResolver maps a remote address to an ISO 3166-1 country code. The
// production resolver wraps an external GeoIP database; the engine only
// depends on this capability.
type GeoResolver interface {
	Country(ip netip.Addr) (string, bool)
}

// NoopGeoResolver resolves nothing; the derived country column stays null.
type NoopGeoResolver struct{}

func (NoopGeoResolver) Country(netip.Addr) (string, bool) { return "", false }

// PrefixGeoResolver resolves countries from a static CIDR table. Enough
// for tests and small installs without an external GeoIP database.
type PrefixGeoResolver struct {
	prefixes []prefixEntry
}

type prefixEntry struct {
	prefix netip.Prefix
	code   string
}

func NewPrefixGeoResolver(table map[string]string) (*PrefixGeoResolver, error) {
	resolver := &PrefixGeoResolver{}
	for cidr, code := range table {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, err
		}
		resolver.prefixes = append(resolver.prefixes, prefixEntry{prefix: prefix, code: code})
	}
	// Longest prefix first so the most specific range wins.
	sort.Slice(resolver.prefixes, func(i, j int) bool {
		return resolver.prefixes[i].prefix.Bits() > resolver.prefixes[j].prefix.Bits()
	})
	return resolver, nil
}

func (r *PrefixGeoResolver) Country(ip netip.Addr) (string, bool) {
	for _, entry := range r.prefixes {
		if entry.prefix.Contains(ip) {
			return entry.code, true
		}
	}
	return "", false
}
