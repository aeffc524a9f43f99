package mcp

import (
	"github.com/custodia-labs/chai-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Search answers queries, point lookups and catalog stats. Required.
	Search driving.SearchService

	// Cache adds page cache figures to the stats resource. Optional.
	Cache driving.CacheService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
