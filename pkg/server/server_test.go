package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/sysmcp/mcp-server-go/pkg/errors"
	"github.com/sysmcp/mcp-server-go/pkg/logging"
	"github.com/sysmcp/mcp-server-go/pkg/protocol"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *BaseToolHandler) {
	t.Helper()
	handler := NewBaseToolHandler(logging.NewNop())
	handler.RegisterTool(protocol.Tool{
		Name:        "echo",
		Description: "echoes its arguments back",
		InputSchema: protocol.ToolInputSchema{Type: "object"},
	}, func(ctx context.Context, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error) {
		return &protocol.CallToolResult{
			Content: []protocol.ContentBlock{protocol.TextContent(string(args))},
		}, nil
	})
	handler.RegisterResource(protocol.Resource{
		URI:  "file:///etc/motd",
		Name: "motd",
	}, protocol.ResourceContents{
		URI:      "file:///etc/motd",
		MimeType: "text/plain",
		Text:     "welcome",
	})
	handler.RegisterPrompt(protocol.Prompt{Name: "greeting"},
		func(ctx context.Context, args json.RawMessage) (*protocol.GetPromptResult, error) {
			return &protocol.GetPromptResult{
				Messages: []protocol.PromptMessage{
					{Role: "user", Content: protocol.TextContent("hello")},
				},
			}, nil
		})

	opts = append([]Option{WithLogger(logging.NewNop())}, opts...)
	return New(handler, opts...), handler
}

func call(t *testing.T, s *Server, req *protocol.Request) *protocol.Response {
	t.Helper()
	resp := s.HandleRequest(context.Background(), req)
	require.NotNil(t, resp)
	return resp
}

func TestHandleRequestPingVersionShapes(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("v1 without version tag", func(t *testing.T) {
		resp := call(t, s, &protocol.Request{ID: float64(1), Method: protocol.MethodPing})
		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":1,"result":{},"error":null}`, string(data))
	})

	t.Run("v1 explicit tag", func(t *testing.T) {
		resp := call(t, s, &protocol.Request{JSONRPC: "1.0", ID: float64(2), Method: protocol.MethodPing})
		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":2,"result":{},"error":null}`, string(data))
	})

	t.Run("v2", func(t *testing.T) {
		resp := call(t, s, &protocol.Request{JSONRPC: "2.0", ID: float64(3), Method: protocol.MethodPing})
		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"result":{}}`, string(data))
	})
}

func TestHandleRequestInvalidVersionTag(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, &protocol.Request{JSONRPC: "9.9", ID: float64(7), Method: protocol.MethodPing})
	require.True(t, resp.IsError())
	assert.Equal(t, mcperrors.CodeInvalidRequest, resp.Err.Code)
	assert.Contains(t, resp.Err.Message, "9.9")

	// error still answered in 2.0 shape
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, `"2.0"`, string(wire["jsonrpc"]))
	assert.NotContains(t, wire, "result")
}

func TestHandleRequestMethodNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, &protocol.Request{JSONRPC: "2.0", ID: "a", Method: "tools/destroy"})
	require.True(t, resp.IsError())
	assert.Equal(t, mcperrors.CodeMethodNotFound, resp.Err.Code)
	assert.Contains(t, resp.Err.Message, "tools/destroy")
}

func TestHandleRequestNotificationsProduceNoResponse(t *testing.T) {
	s, _ := newTestServer(t)

	// unknown notification method
	resp := s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0", Method: "notifications/initialized",
	})
	assert.Nil(t, resp)

	// malformed cancellation payload is dropped silently
	resp = s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0", Method: protocol.MethodCancelled,
		Params: json.RawMessage(`{"nonsense":true}`),
	})
	assert.Nil(t, resp)

	// even a bad version tag on a notification produces nothing
	resp = s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "9.9", Method: protocol.MethodCancelled,
	})
	assert.Nil(t, resp)
}

func TestHandleRequestMissingParams(t *testing.T) {
	s, _ := newTestServer(t)

	methods := []string{
		protocol.MethodCallTool,
		protocol.MethodReadResource,
		protocol.MethodSubscribeResource,
		protocol.MethodUnsubscribeResource,
		protocol.MethodGetPrompt,
		protocol.MethodSetLogLevel,
		protocol.MethodComplete,
	}
	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			resp := call(t, s, &protocol.Request{JSONRPC: "2.0", ID: float64(1), Method: method})
			require.True(t, resp.IsError())
			assert.Equal(t, mcperrors.CodeInvalidParams, resp.Err.Code)
		})
	}
}

func TestHandleRequestMissingToolName(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodCallTool,
		Params: json.RawMessage(`{"arguments":{}}`),
	})
	require.True(t, resp.IsError())
	assert.Equal(t, mcperrors.CodeInvalidParams, resp.Err.Code)
	assert.Equal(t, "Missing tool name", resp.Err.Message)
}

func TestHandleRequestUnknownTool(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodCallTool,
		Params: json.RawMessage(`{"name":"no-such-tool"}`),
	})
	require.True(t, resp.IsError())
	assert.Equal(t, mcperrors.CodeInvalidParams, resp.Err.Code)
	assert.Contains(t, resp.Err.Message, "no-such-tool")
}

func TestHandleRequestCallToolEcho(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(5), Method: protocol.MethodCallTool,
		Params: json.RawMessage(`{"name":"echo","arguments":{"text":"hi"}}`),
	})
	require.False(t, resp.IsError())

	var result protocol.CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.JSONEq(t, `{"text":"hi"}`, result.Content[0].Text)
}

func TestHandleRequestInitialize(t *testing.T) {
	s, _ := newTestServer(t,
		WithServerInfo("system-server", "2.3.1"),
		WithInstructions("call echo to test the loop"),
		WithDeclaredTools([]protocol.Tool{{Name: "echo"}}),
	)

	resp := call(t, s, &protocol.Request{JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodInitialize})
	require.False(t, resp.IsError())

	var result protocol.InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "system-server", result.ServerInfo.Name)
	assert.Equal(t, "2.3.1", result.ServerInfo.Version)
	assert.Equal(t, "call echo to test the loop", result.Instructions)
	require.Contains(t, result.Capabilities.Tools, "tools")
}

func TestHandleRequestSubscriptionLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, 0, s.SubscriptionCount())

	// subscribing to an unknown resource fails and leaves the set alone
	resp := call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodSubscribeResource,
		Params: json.RawMessage(`{"uri":"file:///nope"}`),
	})
	require.True(t, resp.IsError())
	assert.Equal(t, mcperrors.CodeInvalidParams, resp.Err.Code)
	assert.Equal(t, 0, s.SubscriptionCount())

	resp = call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(2), Method: protocol.MethodSubscribeResource,
		Params: json.RawMessage(`{"uri":"file:///etc/motd"}`),
	})
	require.False(t, resp.IsError())
	assert.True(t, s.IsSubscribed("file:///etc/motd"))
	assert.Equal(t, 1, s.SubscriptionCount())

	// re-subscribing is idempotent
	call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(3), Method: protocol.MethodSubscribeResource,
		Params: json.RawMessage(`{"uri":"file:///etc/motd"}`),
	})
	assert.Equal(t, 1, s.SubscriptionCount())

	resp = call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(4), Method: protocol.MethodUnsubscribeResource,
		Params: json.RawMessage(`{"uri":"file:///etc/motd"}`),
	})
	require.False(t, resp.IsError())
	assert.False(t, s.IsSubscribed("file:///etc/motd"))
	assert.Equal(t, 0, s.SubscriptionCount())
}

func TestHandleRequestReadResource(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodReadResource,
		Params: json.RawMessage(`{"uri":"file:///etc/motd"}`),
	})
	require.False(t, resp.IsError())

	var result protocol.ReadResourceResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "welcome", result.Contents[0].Text)

	resp = call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(2), Method: protocol.MethodReadResource,
		Params: json.RawMessage(`{"uri":"file:///missing"}`),
	})
	require.True(t, resp.IsError())
	assert.Equal(t, mcperrors.CodeInvalidParams, resp.Err.Code)
}

func TestHandleRequestGetPrompt(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodGetPrompt,
		Params: json.RawMessage(`{"name":"greeting"}`),
	})
	require.False(t, resp.IsError())

	var result protocol.GetPromptResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "user", result.Messages[0].Role)

	resp = call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(2), Method: protocol.MethodGetPrompt,
		Params: json.RawMessage(`{"name":"no-such-prompt"}`),
	})
	require.True(t, resp.IsError())
	assert.Equal(t, mcperrors.CodeInvalidParams, resp.Err.Code)
}

func TestHandleRequestListPaging(t *testing.T) {
	handler := NewBaseToolHandler(logging.NewNop())
	for i := 0; i < 120; i++ {
		handler.RegisterTool(protocol.Tool{
			Name:        fmtToolName(i),
			InputSchema: protocol.ToolInputSchema{Type: "object"},
		}, func(ctx context.Context, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error) {
			return &protocol.CallToolResult{}, nil
		})
	}
	s := New(handler, WithLogger(logging.NewNop()))

	resp := call(t, s, &protocol.Request{JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodListTools})
	require.False(t, resp.IsError())

	var page1 protocol.ListToolsResult
	require.NoError(t, json.Unmarshal(resp.Result, &page1))
	assert.Len(t, page1.Tools, 50)
	require.NotEmpty(t, page1.NextCursor)

	resp = call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(2), Method: protocol.MethodListTools,
		Params: json.RawMessage(`{"cursor":"` + page1.NextCursor + `"}`),
	})
	var page2 protocol.ListToolsResult
	require.NoError(t, json.Unmarshal(resp.Result, &page2))
	assert.Len(t, page2.Tools, 50)
	require.NotEmpty(t, page2.NextCursor)
	assert.NotEqual(t, page1.Tools[0].Name, page2.Tools[0].Name)

	resp = call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(3), Method: protocol.MethodListTools,
		Params: json.RawMessage(`{"cursor":"` + page2.NextCursor + `"}`),
	})
	var page3 protocol.ListToolsResult
	require.NoError(t, json.Unmarshal(resp.Result, &page3))
	assert.Len(t, page3.Tools, 20)
	assert.Empty(t, page3.NextCursor)

	// garbage cursors are rejected as invalid params
	resp = call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(4), Method: protocol.MethodListTools,
		Params: json.RawMessage(`{"cursor":"!!!not-base64!!!"}`),
	})
	require.True(t, resp.IsError())
	assert.Equal(t, mcperrors.CodeInvalidParams, resp.Err.Code)
}

func fmtToolName(i int) string {
	// zero-padded so lexical order matches registration order
	const digits = "0123456789"
	return "tool-" + string([]byte{digits[i/100%10], digits[i/10%10], digits[i%10]})
}

func TestHandleRequestSetLogLevel(t *testing.T) {
	logger := logging.New(nil, nil)
	handler := NewBaseToolHandler(logger)
	s := New(handler, WithLogger(logging.NewNop()))

	resp := call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodSetLogLevel,
		Params: json.RawMessage(`{"level":"debug"}`),
	})
	require.False(t, resp.IsError())
	assert.Equal(t, logging.DebugLevel, logger.GetLevel())

	resp = call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(2), Method: protocol.MethodSetLogLevel,
		Params: json.RawMessage(`{"level":""}`),
	})
	require.True(t, resp.IsError())
	assert.Equal(t, mcperrors.CodeInvalidParams, resp.Err.Code)
}

func TestHandleRequestCompleteWithoutCallback(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodComplete,
		Params: json.RawMessage(`{"ref":{"type":"ref/prompt","name":"greeting"},"argument":{"name":"x","value":""}}`),
	})
	require.False(t, resp.IsError())

	var result protocol.CompleteResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Empty(t, result.Completion.Values)
}

func TestHandleRequestToolSchemaValidation(t *testing.T) {
	handler := NewBaseToolHandler(logging.NewNop())
	handler.RegisterTool(protocol.Tool{
		Name: "run",
		InputSchema: protocol.ToolInputSchema{
			Type:     "object",
			Required: []string{"command"},
		},
	}, func(ctx context.Context, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error) {
		return &protocol.CallToolResult{}, nil
	})
	s := New(handler, WithLogger(logging.NewNop()))

	resp := call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodCallTool,
		Params: json.RawMessage(`{"name":"run","arguments":{}}`),
	})
	require.True(t, resp.IsError())
	assert.Equal(t, mcperrors.CodeInvalidParams, resp.Err.Code)
	assert.Contains(t, resp.Err.Message, "command")

	resp = call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(2), Method: protocol.MethodCallTool,
		Params: json.RawMessage(`{"name":"run","arguments":{"command":"uptime"}}`),
	})
	assert.False(t, resp.IsError())
}

func TestHandleRequestHandlerErrorPassthrough(t *testing.T) {
	handler := NewBaseToolHandler(logging.NewNop())
	handler.RegisterTool(protocol.Tool{Name: "boom"},
		func(ctx context.Context, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error) {
			return nil, assert.AnError
		})
	s := New(handler, WithLogger(logging.NewNop()))

	resp := call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodCallTool,
		Params: json.RawMessage(`{"name":"boom"}`),
	})
	require.True(t, resp.IsError())
	// plain errors are translated, never swallowed
	assert.Equal(t, mcperrors.CodeInternalError, resp.Err.Code)
	assert.Contains(t, resp.Err.Message, assert.AnError.Error())
}
