package server

import (
	"context"
	"encoding/json"

	"github.com/sysmcp/mcp-server-go/pkg/protocol"
)

// ToolHandler is the capability surface a Server dispatches into. Every
// routed method lands on exactly one of these calls; the dispatcher owns
// parameter decoding, version shaping and cancellation, so implementations
// only see validated inputs.
//
// Implementations may embed BaseToolHandler and override what they need.
type ToolHandler interface {
	// Initialize performs the protocol handshake. The server passes its
	// declared capabilities; the handler returns the InitializeResult the
	// client sees and may amend server info or instructions.
	Initialize(ctx context.Context, capabilities protocol.ServerCapabilities) (*protocol.InitializeResult, error)

	// Ping is a liveness probe. It should return an empty result quickly.
	Ping(ctx context.Context) (*protocol.EmptyResult, error)

	// ListTools returns one page of the tool catalog starting at cursor.
	ListTools(ctx context.Context, cursor string) (*protocol.ListToolsResult, error)

	// CallTool executes the named tool. The context is cancelled when the
	// client sends notifications/cancelled for this request; long-running
	// tools should watch ctx.Done(). progress is never nil, but sending on
	// it is a no-op unless the request carried a progress token.
	CallTool(ctx context.Context, name string, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error)

	// ListResources returns one page of readable resources.
	ListResources(ctx context.Context, cursor string) (*protocol.ListResourcesResult, error)

	// ReadResource returns the contents of the resource at uri.
	ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error)

	// ListResourceTemplates returns one page of URI templates.
	ListResourceTemplates(ctx context.Context, cursor string) (*protocol.ListResourceTemplatesResult, error)

	// Subscribe validates a subscription to uri. The server records the
	// subscription only after this returns nil.
	Subscribe(ctx context.Context, uri string) (*protocol.EmptyResult, error)

	// Unsubscribe validates removal of a subscription to uri.
	Unsubscribe(ctx context.Context, uri string) (*protocol.EmptyResult, error)

	// ListPrompts returns one page of the prompt catalog.
	ListPrompts(ctx context.Context, cursor string) (*protocol.ListPromptsResult, error)

	// GetPrompt renders the named prompt with the given arguments.
	GetPrompt(ctx context.Context, name string, args json.RawMessage) (*protocol.GetPromptResult, error)

	// SetLogLevel adjusts the handler's minimum log level. level is the
	// wire name ("debug", "info", "warning", ...).
	SetLogLevel(ctx context.Context, level string) (*protocol.EmptyResult, error)

	// Complete produces argument completion candidates.
	Complete(ctx context.Context, params json.RawMessage) (*protocol.CompleteResult, error)

	// OnRequestCancelled is invoked when a notifications/cancelled arrives
	// for an in-flight request. It runs on the dispatch goroutine and must
	// not block.
	OnRequestCancelled(requestID, reason string)
}
