package server

import "context"

// Observer receives dispatch lifecycle events. The observability
// package provides Prometheus and OpenTelemetry implementations; the
// interface lives here so the server does not import them.
type Observer interface {
	// BeginRequest is called when dispatch of a request starts. It may
	// derive a new context (for trace spans) and returns a finish
	// function to invoke exactly once with the terminal status
	// ("success", "error" or "cancelled").
	BeginRequest(ctx context.Context, method string) (context.Context, func(status string))

	// RecordNotification is called when an outbound notification is
	// enqueued.
	RecordNotification(method string)

	// RecordCancellation is called when an inbound cancellation
	// matches an in-flight request.
	RecordCancellation(requestID string)
}

// nopObserver is the default when no observer is configured.
type nopObserver struct{}

func (nopObserver) BeginRequest(ctx context.Context, method string) (context.Context, func(string)) {
	return ctx, func(string) {}
}

func (nopObserver) RecordNotification(string) {}
func (nopObserver) RecordCancellation(string) {}
