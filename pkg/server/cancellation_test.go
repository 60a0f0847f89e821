package server

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	mcperrors "github.com/sysmcp/mcp-server-go/pkg/errors"
	"github.com/sysmcp/mcp-server-go/pkg/logging"
	"github.com/sysmcp/mcp-server-go/pkg/protocol"
)

func TestCancellationRegistry(t *testing.T) {
	r := newCancellationRegistry()

	ch := r.begin("req-1")
	if r.inFlight() != 1 {
		t.Fatalf("inFlight = %d, want 1", r.inFlight())
	}

	if !r.cancel("req-1") {
		t.Fatal("cancel of registered request returned false")
	}
	select {
	case <-ch:
	default:
		t.Fatal("cancellation channel not closed")
	}
	if r.inFlight() != 0 {
		t.Fatalf("inFlight = %d after cancel, want 0", r.inFlight())
	}

	// cancelling again is a no-op, not a double close
	if r.cancel("req-1") {
		t.Fatal("second cancel reported an in-flight request")
	}

	// end after cancel is safe
	r.end("req-1")

	// end without cancel removes silently
	r.begin("req-2")
	r.end("req-2")
	if r.cancel("req-2") {
		t.Fatal("cancel after end reported an in-flight request")
	}
}

func TestCancellationRegistryCollisionReplaces(t *testing.T) {
	r := newCancellationRegistry()

	old := r.begin("dup")
	replacement := r.begin("dup")
	if r.inFlight() != 1 {
		t.Fatalf("inFlight = %d, want 1", r.inFlight())
	}

	r.cancel("dup")
	select {
	case <-replacement:
	default:
		t.Fatal("replacement channel not closed")
	}
	select {
	case <-old:
		t.Fatal("abandoned channel was closed")
	default:
	}
}

// cancelAwareHandler records OnRequestCancelled invocations.
type cancelAwareHandler struct {
	*BaseToolHandler

	mu        sync.Mutex
	cancelled []string
	reasons   []string
}

func newCancelAwareHandler() *cancelAwareHandler {
	return &cancelAwareHandler{BaseToolHandler: NewBaseToolHandler(logging.NewNop())}
}

func (h *cancelAwareHandler) OnRequestCancelled(requestID, reason string) {
	h.mu.Lock()
	h.cancelled = append(h.cancelled, requestID)
	h.reasons = append(h.reasons, reason)
	h.mu.Unlock()
}

func (h *cancelAwareHandler) cancelledIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.cancelled...)
}

func TestCancelMidFlightToolCall(t *testing.T) {
	handler := newCancelAwareHandler()
	started := make(chan struct{})
	handler.RegisterTool(protocol.Tool{Name: "sleep"},
		func(ctx context.Context, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
	s := New(handler, WithLogger(logging.NewNop()))

	respCh := make(chan *protocol.Response, 1)
	go func() {
		respCh <- s.HandleRequest(context.Background(), &protocol.Request{
			JSONRPC: "2.0", ID: "req-42", Method: protocol.MethodCallTool,
			Params: json.RawMessage(`{"name":"sleep"}`),
		})
	}()

	<-started
	if s.InFlight() != 1 {
		t.Fatalf("InFlight = %d, want 1", s.InFlight())
	}

	if resp := s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0", Method: protocol.MethodCancelled,
		Params: json.RawMessage(`{"requestId":"req-42","reason":"user aborted"}`),
	}); resp != nil {
		t.Fatal("cancellation notification produced a response")
	}

	select {
	case resp := <-respCh:
		if resp == nil || !resp.IsError() {
			t.Fatal("cancelled call did not return an error response")
		}
		if resp.Err.Code != mcperrors.CodeRequestCancelled {
			t.Fatalf("error code = %d, want %d", resp.Err.Code, mcperrors.CodeRequestCancelled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled call never unblocked")
	}

	if s.InFlight() != 0 {
		t.Fatalf("InFlight = %d after cancellation, want 0", s.InFlight())
	}
	ids := handler.cancelledIDs()
	if len(ids) != 1 || ids[0] != "req-42" {
		t.Fatalf("OnRequestCancelled ids = %v, want [req-42]", ids)
	}
}

func TestCancelAfterCompletionIsNoop(t *testing.T) {
	handler := newCancelAwareHandler()
	handler.RegisterTool(protocol.Tool{Name: "quick"},
		func(ctx context.Context, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error) {
			return &protocol.CallToolResult{Content: []protocol.ContentBlock{protocol.TextContent("done")}}, nil
		})
	s := New(handler, WithLogger(logging.NewNop()))

	resp := s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0", ID: "req-7", Method: protocol.MethodCallTool,
		Params: json.RawMessage(`{"name":"quick"}`),
	})
	if resp == nil || resp.IsError() {
		t.Fatal("tool call failed")
	}

	s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0", Method: protocol.MethodCancelled,
		Params: json.RawMessage(`{"requestId":"req-7"}`),
	})

	if ids := handler.cancelledIDs(); len(ids) != 0 {
		t.Fatalf("OnRequestCancelled fired for a completed request: %v", ids)
	}
}

func TestCancelUnknownRequestIsNoop(t *testing.T) {
	handler := newCancelAwareHandler()
	s := New(handler, WithLogger(logging.NewNop()))

	s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0", Method: protocol.MethodCancelled,
		Params: json.RawMessage(`{"requestId":"never-seen"}`),
	})

	if ids := handler.cancelledIDs(); len(ids) != 0 {
		t.Fatalf("OnRequestCancelled fired for an unknown request: %v", ids)
	}
}

func TestNumericRequestIDMatchesCancellationKey(t *testing.T) {
	handler := newCancelAwareHandler()
	started := make(chan struct{})
	handler.RegisterTool(protocol.Tool{Name: "sleep"},
		func(ctx context.Context, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
	s := New(handler, WithLogger(logging.NewNop()))

	respCh := make(chan *protocol.Response, 1)
	go func() {
		// a JSON id of 2 decodes as float64; the cancellation key must
		// still match the string literal "2"
		respCh <- s.HandleRequest(context.Background(), &protocol.Request{
			JSONRPC: "2.0", ID: float64(2), Method: protocol.MethodCallTool,
			Params: json.RawMessage(`{"name":"sleep"}`),
		})
	}()

	<-started
	s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0", Method: protocol.MethodCancelled,
		Params: json.RawMessage(`{"requestId":"2"}`),
	})

	select {
	case resp := <-respCh:
		if resp == nil || resp.Err == nil || resp.Err.Code != mcperrors.CodeRequestCancelled {
			t.Fatal("numeric-id call was not cancelled")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("numeric-id call never unblocked")
	}
}
