package protocol

import "encoding/json"

// Method names form a closed enumeration; the dispatcher routes on
// these literals and rejects everything else with MethodNotFound.
const (
	MethodInitialize            = "initialize"
	MethodPing                  = "ping"
	MethodListTools             = "tools/list"
	MethodCallTool              = "tools/call"
	MethodListResources         = "resources/list"
	MethodReadResource          = "resources/read"
	MethodListResourceTemplates = "resources/templates/list"
	MethodSubscribeResource     = "resources/subscribe"
	MethodUnsubscribeResource   = "resources/unsubscribe"
	MethodListPrompts           = "prompts/list"
	MethodGetPrompt             = "prompts/get"
	MethodSetLogLevel           = "logging/setLevel"
	MethodComplete              = "completion/complete"
)

// Notification method names.
const (
	// MethodCancelled is the inbound cancellation notification.
	MethodCancelled = "notifications/cancelled"
	// MethodProgress is the outbound progress notification.
	MethodProgress = "notifications/progress"
	// MethodResourceUpdated is the outbound resource-update notification.
	MethodResourceUpdated = "notifications/resources/updated"
)

// ListParams carries the optional pagination cursor shared by every
// list method.
type ListParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// CallToolParams are the parameters of tools/call.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ReadResourceParams are the parameters of resources/read.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// SubscribeParams are the parameters of resources/subscribe and
// resources/unsubscribe.
type SubscribeParams struct {
	URI string `json:"uri"`
}

// GetPromptParams are the parameters of prompts/get.
type GetPromptParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// SetLogLevelParams are the parameters of logging/setLevel.
type SetLogLevelParams struct {
	Level string `json:"level"`
}

// CancelledParams are the parameters of notifications/cancelled.
type CancelledParams struct {
	RequestID string `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

// ProgressParams are the parameters of notifications/progress. The
// progress value is normalized into [0,1].
type ProgressParams struct {
	ProgressToken ProgressToken `json:"progressToken"`
	Progress      float64       `json:"progress"`
	Message       string        `json:"message,omitempty"`
	Total         *float64      `json:"total,omitempty"`
}

// ResourceUpdatedParams are the parameters of
// notifications/resources/updated.
type ResourceUpdatedParams struct {
	URI string `json:"uri"`
}
