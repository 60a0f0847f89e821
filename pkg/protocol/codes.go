package protocol

// Standard JSON-RPC error codes, shared by both version dialects.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// CodeRequestCancelled reports a call that lost the race against a
// cancellation notification. It sits outside the reserved range; the
// value follows the MCP convention.
const CodeRequestCancelled = -32800
