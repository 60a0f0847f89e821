package errors

import "fmt"

// Constructors for every failure kind the dispatcher distinguishes.

// InvalidVersion reports an unrecognized jsonrpc version tag.
func InvalidVersion(tag string) MCPError {
	return Newf(CodeInvalidRequest, CategoryProtocol, "Invalid JSON-RPC version: %s", tag)
}

// MethodNotFound reports a method outside the routing table.
func MethodNotFound(method string) MCPError {
	return Newf(CodeMethodNotFound, CategoryValidation, "Method not found: %s", method)
}

// MissingParameters reports an absent params object or a missing
// required field within it.
func MissingParameters(field string) MCPError {
	return Newf(CodeInvalidParams, CategoryValidation, "Missing parameters: %s", field)
}

// MissingToolName reports a tools/call with no tool name.
func MissingToolName() MCPError {
	return New(CodeInvalidParams, "Missing tool name", CategoryValidation)
}

// InvalidParameters reports a params object that decoded but failed
// validation.
func InvalidParameters(detail string) MCPError {
	return Newf(CodeInvalidParams, CategoryValidation, "Invalid parameters: %s", detail)
}

// UnknownTool reports a tools/call naming a tool the capability does
// not provide.
func UnknownTool(name string) MCPError {
	return Newf(CodeInvalidParams, CategoryValidation, "Unknown tool: %s", name)
}

// UnknownPrompt reports a prompts/get naming an unknown prompt.
func UnknownPrompt(name string) MCPError {
	return Newf(CodeInvalidParams, CategoryValidation, "Unknown prompt: %s", name)
}

// ResourceNotFound reports a resources/read of a URI the capability
// cannot serve.
func ResourceNotFound(uri string) MCPError {
	return Newf(CodeInvalidParams, CategoryValidation, "Resource not found: %s", uri)
}

// RequestCancelled reports a call terminated by a cancellation
// notification before its result was ready.
func RequestCancelled(requestID string) MCPError {
	return Newf(CodeRequestCancelled, CategoryCancelled, "Request cancelled: %s", requestID)
}

// ParseError reports input rejected before a Request was built.
func ParseError(cause error) MCPError {
	return Wrap(cause, CodeParseError, "Parse error", CategoryProtocol)
}

// Internal wraps an execution failure under the internal-error code.
func Internal(operation string, cause error) MCPError {
	message := fmt.Sprintf("Internal error in %s", operation)
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, cause.Error())
	}
	return Wrap(cause, CodeInternalError, message, CategoryExecution)
}

// Serialization wraps a marshaling failure; these surface as internal
// errors on the wire.
func Serialization(what string, cause error) MCPError {
	return Wrap(cause, CodeInternalError,
		fmt.Sprintf("Failed to serialize %s: %v", what, cause), CategoryExecution)
}
