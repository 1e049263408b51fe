// Package proxydir provides access to the external proxy directory.
package proxydir

import (
	"context"

	"github.com/pricelens/stparts-scraper/models"
)

// Directory lists proxies currently marked available in an external
// data store. Implementations must only return usable records; an
// empty list is a valid answer.
type Directory interface {
	ListAvailable(ctx context.Context, typeFilter models.ProxyType) ([]models.Proxy, error)
}

// Static is a fixed in-memory Directory, used in tests and for runs
// without a proxy database.
type Static struct {
	Proxies []models.Proxy
}

// ListAvailable returns the configured proxies, optionally filtered by
// type.
func (s *Static) ListAvailable(_ context.Context, typeFilter models.ProxyType) ([]models.Proxy, error) {
	if typeFilter == "" {
		out := make([]models.Proxy, len(s.Proxies))
		copy(out, s.Proxies)
		return out, nil
	}
	var out []models.Proxy
	for _, p := range s.Proxies {
		if p.Type == typeFilter {
			out = append(out, p)
		}
	}
	return out, nil
}
