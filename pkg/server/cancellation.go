package server

import "sync"

// cancellationRegistry tracks in-flight cancellable requests. Each
// tools/call registers a channel under its request id; an inbound
// notifications/cancelled closes that channel to wake the call.
type cancellationRegistry struct {
	mu     sync.RWMutex
	active map[string]chan struct{}
}

func newCancellationRegistry() *cancellationRegistry {
	return &cancellationRegistry{active: make(map[string]chan struct{})}
}

// begin registers a request id and returns its cancellation channel.
// A colliding id silently replaces the previous entry; the older
// channel is abandoned, never closed, so its waiter simply becomes
// uncancellable rather than spuriously cancelled.
func (r *cancellationRegistry) begin(requestID string) <-chan struct{} {
	ch := make(chan struct{})
	r.mu.Lock()
	r.active[requestID] = ch
	r.mu.Unlock()
	return ch
}

// cancel removes the entry for requestID and closes its channel.
// It reports whether an in-flight request was found; cancelling an
// unknown or already-finished id is a no-op.
func (r *cancellationRegistry) cancel(requestID string) bool {
	r.mu.Lock()
	ch, ok := r.active[requestID]
	if ok {
		delete(r.active, requestID)
	}
	r.mu.Unlock()
	if ok {
		close(ch)
	}
	return ok
}

// end removes the entry for requestID without closing the channel.
// Safe to call whether or not the entry still exists, so completion
// and cancellation can race without double-close.
func (r *cancellationRegistry) end(requestID string) {
	r.mu.Lock()
	delete(r.active, requestID)
	r.mu.Unlock()
}

// inFlight returns the number of registered requests.
func (r *cancellationRegistry) inFlight() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}
