package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysmcp/mcp-server-go/pkg/logging"
	"github.com/sysmcp/mcp-server-go/pkg/protocol"
)

func TestNotificationQueueFIFO(t *testing.T) {
	q := newNotificationQueue()

	for i := 0; i < 5; i++ {
		ok := q.push(ServerNotification{
			Method:          protocol.MethodResourceUpdated,
			ResourceUpdated: &protocol.ResourceUpdatedParams{URI: fmtToolName(i)},
		})
		require.True(t, ok)
	}
	assert.Equal(t, 5, q.depth())

	for i := 0; i < 5; i++ {
		n, ok := q.pop(context.Background())
		require.True(t, ok)
		assert.Equal(t, fmtToolName(i), n.ResourceUpdated.URI)
	}
	assert.Equal(t, 0, q.depth())
}

func TestNotificationQueueCloseDrains(t *testing.T) {
	q := newNotificationQueue()
	q.push(ServerNotification{Method: protocol.MethodResourceUpdated,
		ResourceUpdated: &protocol.ResourceUpdatedParams{URI: "file:///a"}})
	q.close()

	// queued item survives close
	n, ok := q.pop(context.Background())
	require.True(t, ok)
	assert.Equal(t, "file:///a", n.ResourceUpdated.URI)

	// then the queue reports exhaustion
	_, ok = q.pop(context.Background())
	assert.False(t, ok)

	// and pushes are dropped
	assert.False(t, q.push(ServerNotification{Method: protocol.MethodResourceUpdated}))
}

func TestNotificationQueuePopRespectsContext(t *testing.T) {
	q := newNotificationQueue()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.pop(ctx)
		done <- ok
	}()
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("pop did not observe context cancellation")
	}
}

func TestNotificationStreamSingleConsumer(t *testing.T) {
	s, _ := newTestServer(t)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := s.NotificationStream(ctx)
	require.NotNil(t, stream)
	assert.Nil(t, s.NotificationStream(ctx), "second stream take must fail")
}

func TestProgressSenderRequiresToken(t *testing.T) {
	s, _ := newTestServer(t)

	// no token: silent no-op
	sender := &ProgressSender{srv: s}
	sender.Send(0.5, "halfway")
	assert.Equal(t, 0, s.QueueDepth())

	// nil sender is tolerated too
	var nilSender *ProgressSender
	nilSender.Send(0.5, "halfway")

	token := protocol.NewStringToken("tok-1")
	sender = &ProgressSender{token: &token, srv: s}
	sender.Send(0.25, "working")
	sender.SendWithTotal(2.0, "overshoot", 10)
	require.Equal(t, 2, s.QueueDepth())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := s.NotificationStream(ctx)
	require.NotNil(t, stream)

	first := <-stream.C()
	require.True(t, first.IsProgress())
	assert.Equal(t, 0.25, first.Progress.Progress)
	assert.Equal(t, "working", first.Progress.Message)
	assert.True(t, token.Equal(first.Progress.ProgressToken))

	second := <-stream.C()
	require.True(t, second.IsProgress())
	// progress clamps into [0,1]
	assert.Equal(t, 1.0, second.Progress.Progress)
	require.NotNil(t, second.Progress.Total)
	assert.Equal(t, 10.0, *second.Progress.Total)
}

func TestProgressFlowsFromToolCall(t *testing.T) {
	handler := NewBaseToolHandler(logging.NewNop())
	handler.RegisterTool(protocol.Tool{Name: "counter"},
		func(ctx context.Context, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error) {
			progress.Send(0.5, "halfway")
			progress.Send(1.0, "done")
			return &protocol.CallToolResult{}, nil
		})
	s := New(handler, WithLogger(logging.NewNop()))

	// without a progress token the tool's sends are dropped
	resp := s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodCallTool,
		Params: json.RawMessage(`{"name":"counter"}`),
	})
	require.False(t, resp.IsError())
	assert.Equal(t, 0, s.QueueDepth())

	// with one they reach the queue carrying the token
	token := protocol.NewIntToken(99)
	resp = s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0", ID: float64(2), Method: protocol.MethodCallTool,
		Params: json.RawMessage(`{"name":"counter"}`),
		Meta:   &protocol.RequestMeta{ProgressToken: &token},
	})
	require.False(t, resp.IsError())
	assert.Equal(t, 2, s.QueueDepth())
}

func TestNotifyResourceUpdatedRequiresSubscription(t *testing.T) {
	s, _ := newTestServer(t)

	assert.False(t, s.NotifyResourceUpdated("file:///etc/motd"))
	assert.Equal(t, 0, s.QueueDepth())

	resp := s.HandleRequest(context.Background(), &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodSubscribeResource,
		Params: json.RawMessage(`{"uri":"file:///etc/motd"}`),
	})
	require.False(t, resp.IsError())

	assert.True(t, s.NotifyResourceUpdated("file:///etc/motd"))
	assert.Equal(t, 1, s.QueueDepth())
}

func TestNotificationStreamFilters(t *testing.T) {
	s, _ := newTestServer(t)

	call(t, s, &protocol.Request{
		JSONRPC: "2.0", ID: float64(1), Method: protocol.MethodSubscribeResource,
		Params: json.RawMessage(`{"uri":"file:///etc/motd"}`),
	})

	token := protocol.NewIntToken(1)
	sender := &ProgressSender{token: &token, srv: s}
	sender.Send(0.1, "a")
	s.NotifyResourceUpdated("file:///etc/motd")
	sender.Send(0.9, "b")
	s.Close()

	ctx := context.Background()
	stream := s.NotificationStream(ctx).FilterProgress()

	var got []float64
	for n := range stream.C() {
		got = append(got, n.Progress.Progress)
	}
	assert.Equal(t, []float64{0.1, 0.9}, got)
}

func TestNotificationStreamBatchTimeout(t *testing.T) {
	s, _ := newTestServer(t)

	token := protocol.NewIntToken(1)
	sender := &ProgressSender{token: &token, srv: s}
	for i := 0; i < 5; i++ {
		sender.Send(float64(i)/10, "step")
	}
	s.Close()

	batches := s.NotificationStream(context.Background()).BatchTimeout(2, 50*time.Millisecond)

	var sizes []int
	for batch := range batches {
		require.NotEmpty(t, batch)
		sizes = append(sizes, len(batch))
	}
	// 5 notifications in batches of at most 2
	total := 0
	for _, n := range sizes {
		require.LessOrEqual(t, n, 2)
		total += n
	}
	assert.Equal(t, 5, total)
}

func TestServerNotificationWireShape(t *testing.T) {
	token := protocol.NewStringToken("tok")
	total := 4.0
	n := ServerNotification{
		Method: protocol.MethodProgress,
		Progress: &protocol.ProgressParams{
			ProgressToken: token,
			Progress:      0.5,
			Message:       "halfway",
			Total:         &total,
		},
	}
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"jsonrpc": "2.0",
		"method": "notifications/progress",
		"params": {"progressToken":"tok","progress":0.5,"message":"halfway","total":4}
	}`, string(data))

	u := ServerNotification{
		Method:          protocol.MethodResourceUpdated,
		ResourceUpdated: &protocol.ResourceUpdatedParams{URI: "file:///a"},
	}
	data, err = json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"jsonrpc": "2.0",
		"method": "notifications/resources/updated",
		"params": {"uri":"file:///a"}
	}`, string(data))
}
