// Package mcp is the root of the MCP server SDK. It re-exports the
// most commonly used constructors so simple servers only import this
// package plus pkg/protocol for the wire types.
package mcp

import (
	"github.com/sysmcp/mcp-server-go/pkg/server"
	"github.com/sysmcp/mcp-server-go/pkg/transport"
)

// Version is the SDK version.
const Version = "1.0.0"

var (
	// NewServer creates a dispatch server around a ToolHandler.
	NewServer = server.New

	// NewBaseToolHandler creates the in-memory capability registry.
	NewBaseToolHandler = server.NewBaseToolHandler

	// NewStdioTransport creates the newline-delimited stdio transport.
	NewStdioTransport = transport.NewStdio
)

// Server option re-exports.
var (
	WithServerInfo    = server.WithServerInfo
	WithInstructions  = server.WithInstructions
	WithLogger        = server.WithLogger
	WithObserver      = server.WithObserver
	WithCapabilities  = server.WithCapabilities
	WithDeclaredTools = server.WithDeclaredTools
)
