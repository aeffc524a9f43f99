// Package mcp provides an MCP (Model Context Protocol) server adapter for chai.
// It lets AI assistants search the tea catalog and read individual records.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// errMissingTeaRef is returned by get_tea when neither id nor url is given.
var errMissingTeaRef = errors.New("either id or url is required")
