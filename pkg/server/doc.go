// Package server implements the dispatch engine: it routes decoded
// JSON-RPC requests into a ToolHandler, shapes responses for the
// protocol version each request arrived in, supervises tool-call
// cancellation, and multiplexes server-initiated notifications into a
// single outbound stream.
//
// A minimal server:
//
//	handler := server.NewBaseToolHandler(nil)
//	handler.RegisterTool(protocol.Tool{Name: "echo"}, echoTool)
//	srv := server.New(handler, server.WithServerInfo("my-server", "1.0.0"))
//	resp := srv.HandleRequest(ctx, req) // nil for notifications
//
// For a full read-dispatch-write loop over a transport, use Serve with
// a RequestSource and ResponseSink.
package server
