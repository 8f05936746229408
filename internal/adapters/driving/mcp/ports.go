package mcp

import (
	"github.com/custodia-labs/semdex/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers similarity searches.
	Query driving.QueryService

	// Sync manages index entries. Optional; without it the reindex and
	// remove tools report that no vault is configured.
	Sync driving.SyncService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
