// Package errors provides the structured error taxonomy of the SDK.
// Every failure the dispatcher can produce maps onto a JSON-RPC error
// code through a constructor in this package; capability
// implementations are encouraged to return these errors so the code
// on the wire is deliberate rather than a blanket internal error.
package errors

import (
	"encoding/json"
	"fmt"
)

// Category classifies an error for handling and logging.
type Category string

const (
	// CategoryProtocol covers protocol-shape errors: bad version
	// tags, unparsable messages.
	CategoryProtocol Category = "protocol"
	// CategoryValidation covers request-semantic errors: missing
	// params, unknown methods, tools, prompts or resources.
	CategoryValidation Category = "validation"
	// CategoryExecution covers failures while performing the
	// requested work: I/O, serialization, capability faults.
	CategoryExecution Category = "execution"
	// CategoryCancelled marks a call terminated by an explicit
	// cancellation notification; surfaced as an error to unblock the
	// waiting caller, though not a fault.
	CategoryCancelled Category = "cancelled"
)

// MCPError is the error contract of the SDK. It carries a JSON-RPC
// code alongside the usual error text so the dispatcher can shape a
// wire error without guessing.
type MCPError interface {
	error

	// Code returns the JSON-RPC error code.
	Code() int

	// Message returns the human-readable message for the wire.
	Message() string

	// Details returns additional technical detail, if any.
	Details() string

	// Data returns structured error data for the wire, if any.
	Data() interface{}

	// Category returns the error category.
	Category() Category

	// WithDetail returns a copy with additional detail appended.
	WithDetail(detail string) MCPError

	// WithData returns a copy carrying structured data.
	WithData(data interface{}) MCPError

	// Unwrap returns the underlying cause for errors.Is/As.
	Unwrap() error
}

type baseError struct {
	code     int
	message  string
	details  string
	data     interface{}
	category Category
	cause    error
}

func (e *baseError) Error() string {
	if e.details != "" {
		return fmt.Sprintf("%s: %s", e.message, e.details)
	}
	return e.message
}

func (e *baseError) Code() int          { return e.code }
func (e *baseError) Message() string    { return e.message }
func (e *baseError) Details() string    { return e.details }
func (e *baseError) Data() interface{}  { return e.data }
func (e *baseError) Category() Category { return e.category }
func (e *baseError) Unwrap() error      { return e.cause }

func (e *baseError) WithDetail(detail string) MCPError {
	clone := *e
	if clone.details != "" {
		clone.details = fmt.Sprintf("%s; %s", clone.details, detail)
	} else {
		clone.details = detail
	}
	return &clone
}

func (e *baseError) WithData(data interface{}) MCPError {
	clone := *e
	clone.data = data
	return &clone
}

// MarshalJSON emits the wire view of the error.
func (e *baseError) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"code":    e.code,
		"message": e.message,
	}
	if e.data != nil {
		out["data"] = e.data
	}
	return json.Marshal(out)
}

// New creates an MCPError with an explicit code and category.
func New(code int, message string, category Category) MCPError {
	return &baseError{code: code, message: message, category: category}
}

// Newf creates an MCPError with a formatted message.
func Newf(code int, category Category, format string, args ...interface{}) MCPError {
	return &baseError{code: code, message: fmt.Sprintf(format, args...), category: category}
}

// Wrap wraps a cause into an MCPError, preserving it for Unwrap.
func Wrap(cause error, code int, message string, category Category) MCPError {
	return &baseError{code: code, message: message, category: category, cause: cause}
}

// AsMCPError extracts an MCPError from err if it is one.
func AsMCPError(err error) (MCPError, bool) {
	if err == nil {
		return nil, false
	}
	mcpErr, ok := err.(MCPError)
	return mcpErr, ok
}

// CodeOf returns the JSON-RPC code err maps to. Errors that are not
// MCPErrors fall through to the internal-error code: capability
// failures are never swallowed, only translated.
func CodeOf(err error) int {
	if mcpErr, ok := AsMCPError(err); ok {
		return mcpErr.Code()
	}
	return CodeInternalError
}

// IsCode reports whether err maps to the given JSON-RPC code.
func IsCode(err error, code int) bool {
	return err != nil && CodeOf(err) == code
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, category Category) bool {
	if mcpErr, ok := AsMCPError(err); ok {
		return mcpErr.Category() == category
	}
	return false
}
