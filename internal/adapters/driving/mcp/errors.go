// Package mcp provides an MCP (Model Context Protocol) server adapter
// for the semantic index. It lets AI assistants like Claude search the
// vault and manage index entries over stdio or HTTP.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
