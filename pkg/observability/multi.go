package observability

import (
	"context"

	"github.com/sysmcp/mcp-server-go/pkg/server"
)

// Multi fans dispatch events out to several observers, typically
// metrics plus tracing.
func Multi(observers ...server.Observer) server.Observer {
	return multiObserver(observers)
}

type multiObserver []server.Observer

func (m multiObserver) BeginRequest(ctx context.Context, method string) (context.Context, func(string)) {
	finishers := make([]func(string), 0, len(m))
	for _, o := range m {
		var finish func(string)
		ctx, finish = o.BeginRequest(ctx, method)
		finishers = append(finishers, finish)
	}
	return ctx, func(status string) {
		for _, finish := range finishers {
			finish(status)
		}
	}
}

func (m multiObserver) RecordNotification(method string) {
	for _, o := range m {
		o.RecordNotification(method)
	}
}

func (m multiObserver) RecordCancellation(requestID string) {
	for _, o := range m {
		o.RecordCancellation(requestID)
	}
}
