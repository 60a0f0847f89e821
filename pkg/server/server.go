package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	mcperrors "github.com/sysmcp/mcp-server-go/pkg/errors"
	"github.com/sysmcp/mcp-server-go/pkg/logging"
	"github.com/sysmcp/mcp-server-go/pkg/protocol"
)

const (
	defaultName    = "mcp-server-go"
	defaultVersion = "0.1.0"
)

// Server dispatches decoded JSON-RPC requests into a ToolHandler. It
// owns version detection and response shaping, method routing,
// parameter validation, the cancellation registry, the resource
// subscription set, and the outbound notification queue. One Server
// serves one client connection.
type Server struct {
	handler ToolHandler

	info         protocol.Implementation
	instructions string
	capabilities protocol.ServerCapabilities

	logger   logging.Logger
	observer Observer

	registry      *cancellationRegistry
	subscriptions *subscriptionSet
	queue         *notificationQueue
	streamTaken   atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithServerInfo sets the name and version reported on initialize.
func WithServerInfo(name, version string) Option {
	return func(s *Server) {
		s.info.Name = name
		s.info.Version = version
	}
}

// WithInstructions sets the usage instructions reported on initialize.
func WithInstructions(instructions string) Option {
	return func(s *Server) {
		s.instructions = instructions
	}
}

// WithLogger sets the server's logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver attaches a dispatch observer (metrics, tracing).
func WithObserver(observer Observer) Option {
	return func(s *Server) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithCapabilities replaces the declared capability set.
func WithCapabilities(caps protocol.ServerCapabilities) Option {
	return func(s *Server) {
		s.capabilities = caps
	}
}

// WithDeclaredTools advertises the given tools in the capability set
// passed to the handler's Initialize.
func WithDeclaredTools(tools []protocol.Tool) Option {
	return func(s *Server) {
		if s.capabilities.Tools == nil {
			s.capabilities.Tools = make(map[string]interface{})
		}
		s.capabilities.Tools["tools"] = tools
	}
}

// New creates a Server dispatching into handler.
func New(handler ToolHandler, opts ...Option) *Server {
	s := &Server{
		handler:       handler,
		info:          protocol.Implementation{Name: defaultName, Version: defaultVersion},
		logger:        logging.New(nil, nil),
		observer:      nopObserver{},
		registry:      newCancellationRegistry(),
		subscriptions: newSubscriptionSet(),
		queue:         newNotificationQueue(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleRequest dispatches one decoded request and returns its
// response. Notifications return nil: they never produce output, not
// even on error. Calls always return a non-nil response shaped for the
// detected version; an unrecognized version tag falls back to 2.0
// shaping around an invalid-version error.
func (s *Server) HandleRequest(ctx context.Context, req *protocol.Request) *protocol.Response {
	if req.IsNotification() {
		s.handleNotification(ctx, req)
		return nil
	}

	version, verr := protocol.DetectVersion(req)
	ctx, requestID := logging.EnsureRequestID(ctx, requestKey(req.ID))
	logger := s.logger.WithContext(ctx).WithFields(logging.String("method", req.Method))

	ctx, finish := s.observer.BeginRequest(ctx, req.Method)

	if verr != nil {
		logger.Warn("rejecting request with invalid version tag",
			logging.String("jsonrpc", req.JSONRPC))
		finish("error")
		return protocol.NewErrorResponse(version, req.ID,
			wireError(mcperrors.InvalidVersion(req.JSONRPC)))
	}

	logger.Debug("dispatching request")
	result, err := s.route(ctx, req, requestID)
	if err != nil {
		status := "error"
		if mcperrors.IsCategory(err, mcperrors.CategoryCancelled) {
			status = "cancelled"
			logger.Info("request cancelled before completing")
		} else {
			logger.Warn("request failed", logging.ErrorField(err),
				logging.Int("code", mcperrors.CodeOf(err)))
		}
		finish(status)
		return protocol.NewErrorResponse(version, req.ID, wireError(err))
	}

	resp, merr := protocol.NewResponse(version, req.ID, result)
	if merr != nil {
		logger.Error("failed to serialize result", logging.ErrorField(merr))
		finish("error")
		return protocol.NewErrorResponse(version, req.ID,
			wireError(mcperrors.Serialization("result", merr)))
	}
	finish("success")
	return resp
}

// route maps a method name onto its handler call, decoding and
// validating parameters on the way in.
func (s *Server) route(ctx context.Context, req *protocol.Request, requestID string) (interface{}, error) {
	switch req.Method {
	case protocol.MethodInitialize:
		res, err := s.handler.Initialize(ctx, s.capabilities)
		if err != nil {
			return nil, err
		}
		if res != nil {
			if res.ServerInfo.Name == "" {
				res.ServerInfo = s.info
			}
			if res.Instructions == "" {
				res.Instructions = s.instructions
			}
		}
		return res, nil

	case protocol.MethodPing:
		return s.handler.Ping(ctx)

	case protocol.MethodListTools:
		cursor, err := listCursor(req.Params)
		if err != nil {
			return nil, err
		}
		return s.handler.ListTools(ctx, cursor)

	case protocol.MethodCallTool:
		return s.callTool(ctx, req, requestID)

	case protocol.MethodListResources:
		cursor, err := listCursor(req.Params)
		if err != nil {
			return nil, err
		}
		return s.handler.ListResources(ctx, cursor)

	case protocol.MethodReadResource:
		var params protocol.ReadResourceParams
		if err := decodeParams(req.Params, &params, "resources/read"); err != nil {
			return nil, err
		}
		if params.URI == "" {
			return nil, mcperrors.MissingParameters("uri")
		}
		return s.handler.ReadResource(ctx, params.URI)

	case protocol.MethodListResourceTemplates:
		cursor, err := listCursor(req.Params)
		if err != nil {
			return nil, err
		}
		return s.handler.ListResourceTemplates(ctx, cursor)

	case protocol.MethodSubscribeResource:
		var params protocol.SubscribeParams
		if err := decodeParams(req.Params, &params, "resources/subscribe"); err != nil {
			return nil, err
		}
		if params.URI == "" {
			return nil, mcperrors.MissingParameters("uri")
		}
		res, err := s.handler.Subscribe(ctx, params.URI)
		if err != nil {
			return nil, err
		}
		s.subscriptions.add(params.URI)
		return res, nil

	case protocol.MethodUnsubscribeResource:
		var params protocol.SubscribeParams
		if err := decodeParams(req.Params, &params, "resources/unsubscribe"); err != nil {
			return nil, err
		}
		if params.URI == "" {
			return nil, mcperrors.MissingParameters("uri")
		}
		res, err := s.handler.Unsubscribe(ctx, params.URI)
		if err != nil {
			return nil, err
		}
		s.subscriptions.remove(params.URI)
		return res, nil

	case protocol.MethodListPrompts:
		cursor, err := listCursor(req.Params)
		if err != nil {
			return nil, err
		}
		return s.handler.ListPrompts(ctx, cursor)

	case protocol.MethodGetPrompt:
		var params protocol.GetPromptParams
		if err := decodeParams(req.Params, &params, "prompts/get"); err != nil {
			return nil, err
		}
		if params.Name == "" {
			return nil, mcperrors.MissingParameters("name")
		}
		return s.handler.GetPrompt(ctx, params.Name, params.Arguments)

	case protocol.MethodSetLogLevel:
		var params protocol.SetLogLevelParams
		if err := decodeParams(req.Params, &params, "logging/setLevel"); err != nil {
			return nil, err
		}
		if params.Level == "" {
			return nil, mcperrors.MissingParameters("level")
		}
		return s.handler.SetLogLevel(ctx, params.Level)

	case protocol.MethodComplete:
		if req.Params == nil {
			return nil, mcperrors.MissingParameters("params object for completion/complete")
		}
		return s.handler.Complete(ctx, req.Params)

	default:
		return nil, mcperrors.MethodNotFound(req.Method)
	}
}

// callTool runs the tool under cancellation supervision. The call is
// registered in the cancellation registry keyed by the request id; a
// cancellation notification closes the registered channel, which
// cancels the tool's context and unblocks the dispatcher with a
// RequestCancelled error. When cancellation and completion race, a
// finished result wins.
func (s *Server) callTool(ctx context.Context, req *protocol.Request, requestID string) (interface{}, error) {
	var params protocol.CallToolParams
	if err := decodeParams(req.Params, &params, "tools/call"); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, mcperrors.MissingToolName()
	}

	cancelled := s.registry.begin(requestID)
	defer s.registry.end(requestID)

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := &ProgressSender{token: req.ProgressTokenValue(), srv: s}

	type outcome struct {
		result *protocol.CallToolResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.handler.CallTool(callCtx, params.Name, params.Arguments, progress)
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		return o.result, nil
	case <-cancelled:
		// completion may have raced the cancellation; prefer the
		// finished result over discarding done work
		select {
		case o := <-done:
			if o.err != nil {
				return nil, o.err
			}
			return o.result, nil
		default:
		}
		cancel()
		return nil, mcperrors.RequestCancelled(requestID)
	}
}

// handleNotification processes an inbound notification. Only
// notifications/cancelled is understood; everything else, and every
// malformed payload, is dropped after a log line. Notifications never
// produce a response.
func (s *Server) handleNotification(ctx context.Context, req *protocol.Request) {
	logger := s.logger.WithContext(ctx).WithFields(logging.String("method", req.Method))

	if req.Method != protocol.MethodCancelled {
		logger.Debug("ignoring unknown notification")
		return
	}

	var params protocol.CancelledParams
	if req.Params == nil || json.Unmarshal(req.Params, &params) != nil || params.RequestID == "" {
		logger.Debug("ignoring malformed cancellation notification")
		return
	}

	if s.registry.cancel(params.RequestID) {
		logger.Info("cancelled in-flight request",
			logging.String("target_request_id", params.RequestID),
			logging.String("reason", params.Reason))
		s.observer.RecordCancellation(params.RequestID)
		s.handler.OnRequestCancelled(params.RequestID, params.Reason)
	} else {
		logger.Debug("cancellation for unknown request",
			logging.String("target_request_id", params.RequestID))
	}
}

// NotificationStream returns the single consumer of this server's
// outbound notifications. The stream ends when ctx is done or the
// server is closed and the queue drained. A second call returns nil:
// the queue has exactly one consumer.
func (s *Server) NotificationStream(ctx context.Context) *NotificationStream {
	if !s.streamTaken.CompareAndSwap(false, true) {
		s.logger.Error("notification stream requested twice")
		return nil
	}
	out := make(chan ServerNotification)
	go func() {
		defer close(out)
		for {
			n, ok := s.queue.pop(ctx)
			if !ok {
				return
			}
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()
	return &NotificationStream{ch: out}
}

// NotifyResourceUpdated queues a notifications/resources/updated for
// uri. It reports false when the client holds no subscription for the
// URI or the server is closed.
func (s *Server) NotifyResourceUpdated(uri string) bool {
	if !s.subscriptions.contains(uri) {
		return false
	}
	return s.enqueue(ServerNotification{
		Method:          protocol.MethodResourceUpdated,
		ResourceUpdated: &protocol.ResourceUpdatedParams{URI: uri},
	})
}

func (s *Server) enqueue(n ServerNotification) bool {
	if !s.queue.push(n) {
		return false
	}
	s.observer.RecordNotification(n.Method)
	return true
}

// IsSubscribed reports whether the client is subscribed to uri.
func (s *Server) IsSubscribed(uri string) bool {
	return s.subscriptions.contains(uri)
}

// SubscriptionCount returns the number of active subscriptions.
func (s *Server) SubscriptionCount() int {
	return s.subscriptions.len()
}

// InFlight returns the number of cancellable requests currently
// executing.
func (s *Server) InFlight() int {
	return s.registry.inFlight()
}

// QueueDepth returns the number of notifications waiting for the
// stream consumer.
func (s *Server) QueueDepth() int {
	return s.queue.depth()
}

// Close shuts the notification queue. Queued notifications remain
// readable until drained; further sends are dropped.
func (s *Server) Close() {
	s.queue.close()
}

// requestKey renders a request id as the registry and logging key.
// Numeric ids render without a decimal point for whole values, so the
// string form matches the requestId literal of a cancellation
// notification.
func requestKey(id interface{}) string {
	if id == nil {
		return ""
	}
	if f, ok := id.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", id)
}

// decodeParams unmarshals req.Params into target, distinguishing an
// absent params object from one that fails to decode.
func decodeParams(raw json.RawMessage, target interface{}, method string) error {
	if len(raw) == 0 {
		return mcperrors.MissingParameters("params object for " + method)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return mcperrors.InvalidParameters(err.Error())
	}
	return nil
}

// listCursor extracts the optional pagination cursor; list methods
// accept absent params.
func listCursor(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var params protocol.ListParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return "", mcperrors.InvalidParameters(err.Error())
	}
	return params.Cursor, nil
}

// wireError shapes any error for the wire. Structured errors keep
// their code and data; everything else becomes an internal error.
func wireError(err error) *protocol.Error {
	if mcpErr, ok := mcperrors.AsMCPError(err); ok {
		return &protocol.Error{
			Code:    mcpErr.Code(),
			Message: mcpErr.Message(),
			Data:    mcpErr.Data(),
		}
	}
	return &protocol.Error{
		Code:    mcperrors.CodeInternalError,
		Message: "Internal error: " + err.Error(),
	}
}
