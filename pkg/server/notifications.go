package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sysmcp/mcp-server-go/pkg/protocol"
)

// ServerNotification is an outbound server-initiated message queued
// for the notification stream. Exactly one of Progress and
// ResourceUpdated is set, matching Method.
type ServerNotification struct {
	Method          string
	Progress        *protocol.ProgressParams
	ResourceUpdated *protocol.ResourceUpdatedParams
}

// IsProgress reports whether this is a progress notification.
func (n ServerNotification) IsProgress() bool {
	return n.Method == protocol.MethodProgress
}

// IsResourceUpdate reports whether this is a resource-update
// notification.
func (n ServerNotification) IsResourceUpdate() bool {
	return n.Method == protocol.MethodResourceUpdated
}

// MarshalJSON emits the full JSON-RPC notification envelope, ready to
// write to the transport.
func (n ServerNotification) MarshalJSON() ([]byte, error) {
	var params interface{}
	switch {
	case n.Progress != nil:
		params = n.Progress
	case n.ResourceUpdated != nil:
		params = n.ResourceUpdated
	}
	note, err := protocol.NewNotification(n.Method, params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(note)
}

// notificationQueue is an unbounded FIFO feeding the single
// notification stream. Producers (progress senders, resource-update
// publishers) never block; ordering is preserved per queue.
type notificationQueue struct {
	mu     sync.Mutex
	items  []ServerNotification
	wake   chan struct{}
	closed bool
}

func newNotificationQueue() *notificationQueue {
	return &notificationQueue{wake: make(chan struct{}, 1)}
}

// push appends a notification. It reports false after close.
func (q *notificationQueue) push(n ServerNotification) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, n)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// pop removes the oldest notification, blocking until one arrives,
// the queue is closed and drained, or ctx is done.
func (q *notificationQueue) pop(ctx context.Context) (ServerNotification, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			n := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return n, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return ServerNotification{}, false
		}
		select {
		case <-ctx.Done():
			return ServerNotification{}, false
		case <-q.wake:
		}
	}
}

// close stops the queue. Queued notifications remain poppable until
// drained.
func (q *notificationQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// depth returns the number of queued notifications.
func (q *notificationQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// NotificationStream is the single consumer of a server's outbound
// notifications. Obtain it once through Server.NotificationStream and
// drain C, or derive filtered and batched views.
type NotificationStream struct {
	ch <-chan ServerNotification
}

// C returns the receive channel. It is closed when the server's queue
// closes and drains, or when the stream's context ends.
func (s *NotificationStream) C() <-chan ServerNotification {
	return s.ch
}

// Filter returns a derived stream carrying only notifications keep
// accepts. The parent stream must not be read directly afterwards.
func (s *NotificationStream) Filter(keep func(ServerNotification) bool) *NotificationStream {
	out := make(chan ServerNotification)
	go func() {
		defer close(out)
		for n := range s.ch {
			if keep(n) {
				out <- n
			}
		}
	}()
	return &NotificationStream{ch: out}
}

// FilterProgress returns a derived stream of progress notifications.
func (s *NotificationStream) FilterProgress() *NotificationStream {
	return s.Filter(ServerNotification.IsProgress)
}

// FilterResourceUpdates returns a derived stream of resource-update
// notifications.
func (s *NotificationStream) FilterResourceUpdates() *NotificationStream {
	return s.Filter(ServerNotification.IsResourceUpdate)
}

// BatchTimeout groups notifications into slices of at most maxSize,
// flushing a partial batch after timeout elapses with traffic pending.
// Empty batches are never emitted.
func (s *NotificationStream) BatchTimeout(maxSize int, timeout time.Duration) <-chan []ServerNotification {
	if maxSize < 1 {
		maxSize = 1
	}
	out := make(chan []ServerNotification)
	go func() {
		defer close(out)
		var batch []ServerNotification
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		flush := func() {
			if len(batch) > 0 {
				out <- batch
				batch = nil
			}
		}
		resetTimer := func() {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(timeout)
		}
		for {
			select {
			case n, ok := <-s.ch:
				if !ok {
					flush()
					return
				}
				batch = append(batch, n)
				if len(batch) >= maxSize {
					flush()
					resetTimer()
				}
			case <-timer.C:
				flush()
				timer.Reset(timeout)
			}
		}
	}()
	return out
}

// ProgressSender reports tool progress back to the client. It is
// handed to ToolHandler.CallTool on every call; when the request
// carried no progress token every send is a silent no-op, so tool code
// reports unconditionally.
type ProgressSender struct {
	token *protocol.ProgressToken
	srv   *Server
}

// Send queues a progress notification. progress is clamped into
// [0, 1].
func (p *ProgressSender) Send(progress float64, message string) {
	p.send(progress, message, nil)
}

// SendWithTotal queues a progress notification carrying an expected
// total.
func (p *ProgressSender) SendWithTotal(progress float64, message string, total float64) {
	p.send(progress, message, &total)
}

func (p *ProgressSender) send(progress float64, message string, total *float64) {
	if p == nil || p.token == nil || p.srv == nil {
		return
	}
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	p.srv.enqueue(ServerNotification{
		Method: protocol.MethodProgress,
		Progress: &protocol.ProgressParams{
			ProgressToken: *p.token,
			Progress:      progress,
			Message:       message,
			Total:         total,
		},
	})
}
