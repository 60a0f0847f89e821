package server

import "sync"

// subscriptionSet records which resource URIs the client is
// subscribed to. Mutation happens only on the dispatch path, after the
// handler accepted the subscribe or unsubscribe call.
type subscriptionSet struct {
	mu   sync.RWMutex
	uris map[string]struct{}
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{uris: make(map[string]struct{})}
}

// add records a subscription. Re-subscribing is idempotent.
func (s *subscriptionSet) add(uri string) {
	s.mu.Lock()
	s.uris[uri] = struct{}{}
	s.mu.Unlock()
}

// remove drops a subscription. Removing an absent URI is a no-op.
func (s *subscriptionSet) remove(uri string) {
	s.mu.Lock()
	delete(s.uris, uri)
	s.mu.Unlock()
}

// contains reports whether uri is subscribed.
func (s *subscriptionSet) contains(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.uris[uri]
	return ok
}

// len returns the number of active subscriptions.
func (s *subscriptionSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.uris)
}
