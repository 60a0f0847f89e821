package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/sysmcp/mcp-server-go/pkg/protocol"
)

// RequestSource produces decoded inbound messages. Transport glue
// (stdio framing, HTTP bodies) implements this; it owns parse-error
// replies for bytes that never became a Request.
type RequestSource interface {
	// Next blocks for the next request. io.EOF ends the serve loop
	// cleanly; any other error aborts it.
	Next(ctx context.Context) (*protocol.Request, error)
}

// ResponseSink consumes outbound messages: responses and server
// notifications, both of which marshal to their full wire envelope.
// Send must be safe for concurrent use.
type ResponseSink interface {
	Send(ctx context.Context, payload json.Marshaler) error
}

// Serve pumps requests from src through the dispatcher and queued
// notifications into sink until src is exhausted, ctx ends, or a sink
// write fails. Requests are dispatched concurrently, so a long
// tools/call does not block a ping behind it.
func (s *Server) Serve(ctx context.Context, src RequestSource, sink ResponseSink) error {
	g, gctx := errgroup.WithContext(ctx)

	stream := s.NotificationStream(gctx)
	if stream != nil {
		g.Go(func() error {
			for n := range stream.C() {
				if err := sink.Send(gctx, n); err != nil {
					return err
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		// the queue closes only once every dispatch has finished, so
		// no in-flight call loses its notifications
		defer s.Close()

		dispatches, dctx := errgroup.WithContext(gctx)
		var readErr error
		for {
			req, err := src.Next(dctx)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr = err
				}
				break
			}
			request := req
			dispatches.Go(func() error {
				resp := s.HandleRequest(dctx, request)
				if resp == nil {
					return nil
				}
				return sink.Send(dctx, resp)
			})
		}
		if err := dispatches.Wait(); err != nil {
			return err
		}
		return readErr
	})

	return g.Wait()
}
