package logging

import (
	"context"

	"github.com/google/uuid"
)

// EnsureRequestID returns a context that carries a request id,
// minting one when the inbound message had none usable. The id ties
// together the dispatch log lines, the trace span, and the
// cancellation-registry key of a single call.
func EnsureRequestID(ctx context.Context, requestID string) (context.Context, string) {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return ContextWithRequestID(ctx, requestID), requestID
}

// NewRequestID mints a fresh request id.
func NewRequestID() string {
	return uuid.New().String()
}
