// Package mcp implements the server side of a JSON-RPC tool-invocation
// protocol in the MCP family. A server reads requests from a
// transport, routes them through a dispatch engine into a ToolHandler,
// and writes back responses shaped for whichever JSON-RPC dialect each
// request arrived in (1.0 or 2.0).
//
// # Packages
//
//   - pkg/server: the dispatch engine, cancellation supervision and
//     the outbound notification stream
//   - pkg/protocol: wire types, version detection and response shaping
//   - pkg/transport: newline-delimited stdio framing
//   - pkg/errors: the structured error taxonomy behind the JSON-RPC
//     error codes
//   - pkg/logging: structured logging with request-scoped fields
//   - pkg/observability: Prometheus metrics and OpenTelemetry tracing
//     observers for the dispatcher
//   - pkg/pagination: opaque cursors for the list methods
//
// # A minimal server
//
//	handler := mcp.NewBaseToolHandler(nil)
//	handler.RegisterTool(protocol.Tool{
//	    Name:        "echo",
//	    InputSchema: protocol.ToolInputSchema{Type: "object"},
//	}, func(ctx context.Context, args json.RawMessage, progress *server.ProgressSender) (*protocol.CallToolResult, error) {
//	    return &protocol.CallToolResult{
//	        Content: []protocol.ContentBlock{protocol.TextContent(string(args))},
//	    }, nil
//	})
//
//	srv := mcp.NewServer(handler, mcp.WithServerInfo("echo-server", "1.0.0"))
//	stdio := mcp.NewStdioTransport(nil, nil)
//	if err := srv.Serve(context.Background(), stdio, stdio); err != nil {
//	    log.Fatal(err)
//	}
//
// Long-running tools receive a context that is cancelled when the
// client sends notifications/cancelled, and report progress through
// the ProgressSender when the request carried a progress token.
package mcp
