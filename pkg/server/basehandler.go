package server

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	mcperrors "github.com/sysmcp/mcp-server-go/pkg/errors"
	"github.com/sysmcp/mcp-server-go/pkg/logging"
	"github.com/sysmcp/mcp-server-go/pkg/pagination"
	"github.com/sysmcp/mcp-server-go/pkg/protocol"
	"github.com/sysmcp/mcp-server-go/pkg/utils"
)

// ProtocolVersion is the protocol revision reported on initialize.
const ProtocolVersion = "2025-06-18"

// ToolFunc executes one registered tool.
type ToolFunc func(ctx context.Context, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error)

// PromptFunc renders one registered prompt.
type PromptFunc func(ctx context.Context, args json.RawMessage) (*protocol.GetPromptResult, error)

// CompleteFunc produces completion candidates for completion/complete.
type CompleteFunc func(ctx context.Context, params json.RawMessage) (*protocol.CompleteResult, error)

type registeredTool struct {
	def protocol.Tool
	fn  ToolFunc
}

type registeredPrompt struct {
	def protocol.Prompt
	fn  PromptFunc
}

type registeredResource struct {
	def      protocol.Resource
	contents []protocol.ResourceContents
}

// BaseToolHandler is an in-memory ToolHandler backed by registries of
// tools, resources and prompts. It implements every capability method,
// so custom handlers embed it and register what they serve, or
// override individual methods for dynamic behavior.
//
// List methods page their catalogs in registration-name order using
// opaque cursors.
type BaseToolHandler struct {
	mu        sync.RWMutex
	tools     map[string]registeredTool
	resources map[string]registeredResource
	templates []protocol.ResourceTemplate
	prompts   map[string]registeredPrompt
	complete  CompleteFunc
	logger    logging.Logger
}

// NewBaseToolHandler creates an empty handler. A nil logger defaults
// to a no-op logger.
func NewBaseToolHandler(logger logging.Logger) *BaseToolHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BaseToolHandler{
		tools:     make(map[string]registeredTool),
		resources: make(map[string]registeredResource),
		prompts:   make(map[string]registeredPrompt),
		logger:    logger,
	}
}

// RegisterTool registers or replaces a tool.
func (h *BaseToolHandler) RegisterTool(def protocol.Tool, fn ToolFunc) {
	h.mu.Lock()
	h.tools[def.Name] = registeredTool{def: def, fn: fn}
	h.mu.Unlock()
}

// RegisterResource registers or replaces a resource and its contents.
func (h *BaseToolHandler) RegisterResource(def protocol.Resource, contents ...protocol.ResourceContents) {
	h.mu.Lock()
	h.resources[def.URI] = registeredResource{def: def, contents: contents}
	h.mu.Unlock()
}

// RegisterResourceTemplate registers a URI template.
func (h *BaseToolHandler) RegisterResourceTemplate(def protocol.ResourceTemplate) {
	h.mu.Lock()
	h.templates = append(h.templates, def)
	h.mu.Unlock()
}

// RegisterPrompt registers or replaces a prompt.
func (h *BaseToolHandler) RegisterPrompt(def protocol.Prompt, fn PromptFunc) {
	h.mu.Lock()
	h.prompts[def.Name] = registeredPrompt{def: def, fn: fn}
	h.mu.Unlock()
}

// SetCompleteFunc installs the completion callback. Without one,
// completion/complete returns an empty candidate list.
func (h *BaseToolHandler) SetCompleteFunc(fn CompleteFunc) {
	h.mu.Lock()
	h.complete = fn
	h.mu.Unlock()
}

// Initialize echoes the declared capabilities back to the client. The
// dispatcher fills in server info and instructions.
func (h *BaseToolHandler) Initialize(ctx context.Context, capabilities protocol.ServerCapabilities) (*protocol.InitializeResult, error) {
	return &protocol.InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    capabilities,
	}, nil
}

// Ping acknowledges liveness.
func (h *BaseToolHandler) Ping(ctx context.Context) (*protocol.EmptyResult, error) {
	return &protocol.EmptyResult{}, nil
}

// ListTools returns one page of registered tools, sorted by name.
func (h *BaseToolHandler) ListTools(ctx context.Context, cursor string) (*protocol.ListToolsResult, error) {
	offset, err := pageOffset(cursor)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	all := make([]protocol.Tool, 0, len(h.tools))
	for _, t := range h.tools {
		all = append(all, t.def)
	}
	h.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	start, end, next := pagination.Page(len(all), offset, pagination.DefaultLimit)
	return &protocol.ListToolsResult{Tools: all[start:end], NextCursor: next}, nil
}

// CallTool executes the named registered tool.
func (h *BaseToolHandler) CallTool(ctx context.Context, name string, args json.RawMessage, progress *ProgressSender) (*protocol.CallToolResult, error) {
	h.mu.RLock()
	tool, ok := h.tools[name]
	h.mu.RUnlock()
	if !ok {
		return nil, mcperrors.UnknownTool(name)
	}
	if err := utils.ValidateArguments(tool.def.InputSchema, args); err != nil {
		return nil, mcperrors.InvalidParameters(err.Error())
	}
	return tool.fn(ctx, args, progress)
}

// ListResources returns one page of registered resources, sorted by
// URI.
func (h *BaseToolHandler) ListResources(ctx context.Context, cursor string) (*protocol.ListResourcesResult, error) {
	offset, err := pageOffset(cursor)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	all := make([]protocol.Resource, 0, len(h.resources))
	for _, r := range h.resources {
		all = append(all, r.def)
	}
	h.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].URI < all[j].URI })

	start, end, next := pagination.Page(len(all), offset, pagination.DefaultLimit)
	return &protocol.ListResourcesResult{Resources: all[start:end], NextCursor: next}, nil
}

// ReadResource returns the contents of a registered resource.
func (h *BaseToolHandler) ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error) {
	h.mu.RLock()
	res, ok := h.resources[uri]
	h.mu.RUnlock()
	if !ok {
		return nil, mcperrors.ResourceNotFound(uri)
	}
	return &protocol.ReadResourceResult{Contents: res.contents}, nil
}

// ListResourceTemplates returns one page of registered templates.
func (h *BaseToolHandler) ListResourceTemplates(ctx context.Context, cursor string) (*protocol.ListResourceTemplatesResult, error) {
	offset, err := pageOffset(cursor)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	all := make([]protocol.ResourceTemplate, len(h.templates))
	copy(all, h.templates)
	h.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].URITemplate < all[j].URITemplate })

	start, end, next := pagination.Page(len(all), offset, pagination.DefaultLimit)
	return &protocol.ListResourceTemplatesResult{ResourceTemplates: all[start:end], NextCursor: next}, nil
}

// Subscribe accepts subscriptions to registered resources only.
func (h *BaseToolHandler) Subscribe(ctx context.Context, uri string) (*protocol.EmptyResult, error) {
	h.mu.RLock()
	_, ok := h.resources[uri]
	h.mu.RUnlock()
	if !ok {
		return nil, mcperrors.ResourceNotFound(uri)
	}
	return &protocol.EmptyResult{}, nil
}

// Unsubscribe always succeeds; removing an absent subscription is not
// an error.
func (h *BaseToolHandler) Unsubscribe(ctx context.Context, uri string) (*protocol.EmptyResult, error) {
	return &protocol.EmptyResult{}, nil
}

// ListPrompts returns one page of registered prompts, sorted by name.
func (h *BaseToolHandler) ListPrompts(ctx context.Context, cursor string) (*protocol.ListPromptsResult, error) {
	offset, err := pageOffset(cursor)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	all := make([]protocol.Prompt, 0, len(h.prompts))
	for _, p := range h.prompts {
		all = append(all, p.def)
	}
	h.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	start, end, next := pagination.Page(len(all), offset, pagination.DefaultLimit)
	return &protocol.ListPromptsResult{Prompts: all[start:end], NextCursor: next}, nil
}

// GetPrompt renders the named registered prompt.
func (h *BaseToolHandler) GetPrompt(ctx context.Context, name string, args json.RawMessage) (*protocol.GetPromptResult, error) {
	h.mu.RLock()
	prompt, ok := h.prompts[name]
	h.mu.RUnlock()
	if !ok {
		return nil, mcperrors.UnknownPrompt(name)
	}
	return prompt.fn(ctx, args)
}

// SetLogLevel adjusts the handler logger's minimum level.
func (h *BaseToolHandler) SetLogLevel(ctx context.Context, level string) (*protocol.EmptyResult, error) {
	h.logger.SetLevel(logging.ParseLevel(level))
	return &protocol.EmptyResult{}, nil
}

// Complete delegates to the installed completion callback, or returns
// an empty candidate list.
func (h *BaseToolHandler) Complete(ctx context.Context, params json.RawMessage) (*protocol.CompleteResult, error) {
	h.mu.RLock()
	fn := h.complete
	h.mu.RUnlock()
	if fn == nil {
		return &protocol.CompleteResult{
			Completion: protocol.CompletionList{Values: []string{}},
		}, nil
	}
	return fn(ctx, params)
}

// OnRequestCancelled logs the cancellation. Override for cleanup of
// per-request state.
func (h *BaseToolHandler) OnRequestCancelled(requestID, reason string) {
	h.logger.Info("tool call cancelled",
		logging.String("request_id", requestID),
		logging.String("reason", reason))
}

func pageOffset(cursor string) (int, error) {
	offset, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return 0, mcperrors.InvalidParameters(err.Error())
	}
	return offset, nil
}
