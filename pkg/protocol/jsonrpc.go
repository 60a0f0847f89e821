package protocol

import (
	"encoding/json"
	"fmt"
)

// Version identifies which JSON-RPC dialect a message belongs to.
// The server bridges the 1.0 and 2.0 variants: requests carrying
// jsonrpc:"2.0" are answered in 2.0 shape, requests carrying "1.0"
// or no version field at all are answered in 1.0 shape.
type Version int

const (
	// V1 is the JSON-RPC 1.0 dialect: no jsonrpc field, and both
	// result and error keys are always present on responses.
	V1 Version = iota + 1
	// V2 is the JSON-RPC 2.0 dialect: jsonrpc:"2.0" and exactly one
	// of result/error present on responses.
	V2
)

const (
	// VersionTagV1 is the version literal accepted for V1 requests.
	VersionTagV1 = "1.0"
	// VersionTagV2 is the version literal for V2 messages.
	VersionTagV2 = "2.0"
)

// String returns the wire literal for the version.
func (v Version) String() string {
	if v == V2 {
		return VersionTagV2
	}
	return VersionTagV1
}

// InvalidVersionError reports a jsonrpc tag that is neither "1.0",
// "2.0", nor absent.
type InvalidVersionError struct {
	Tag string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid JSON-RPC version: %s", e.Tag)
}

// DetectVersion inspects the version tag of a request. An absent tag
// is treated as 1.0 for interoperability with older peers. Any literal
// other than "1.0" or "2.0" yields an InvalidVersionError; callers are
// expected to fall back to V2 response shaping in that case rather
// than drop the message.
func DetectVersion(req *Request) (Version, error) {
	switch req.JSONRPC {
	case VersionTagV2:
		return V2, nil
	case VersionTagV1, "":
		return V1, nil
	default:
		return V2, &InvalidVersionError{Tag: req.JSONRPC}
	}
}

// RequestMeta carries the optional _meta extension of a request. Only
// the progress token is understood by the server.
type RequestMeta struct {
	ProgressToken *ProgressToken `json:"progressToken,omitempty"`
}

// Request is a decoded client message, either a call (id present) or
// a notification (id absent). The id is kept opaque and echoed back
// verbatim on responses.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Meta    *RequestMeta    `json:"_meta,omitempty"`
}

// IsNotification reports whether the request is a notification.
// Notifications never produce a response.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// ProgressTokenValue returns the progress token from _meta, or nil if
// the caller did not opt into progress reporting.
func (r *Request) ProgressTokenValue() *ProgressToken {
	if r.Meta == nil {
		return nil
	}
	return r.Meta.ProgressToken
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Response is a reply to a single request. Its wire shape depends on
// the version the request was detected as: marshaling follows the
// version-shape law, so construct responses through NewResponse and
// NewErrorResponse rather than by hand.
type Response struct {
	Version Version
	ID      interface{}
	Result  json.RawMessage
	Err     *Error
}

// NewResponse creates a success response shaped for the given version.
// The result is marshaled eagerly so a serialization failure surfaces
// as an error here instead of at write time.
func NewResponse(v Version, id interface{}, result interface{}) (*Response, error) {
	var resultJSON json.RawMessage
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
	}
	return &Response{Version: v, ID: id, Result: resultJSON}, nil
}

// NewErrorResponse creates an error response shaped for the given
// version.
func NewErrorResponse(v Version, id interface{}, rpcErr *Error) *Response {
	return &Response{Version: v, ID: id, Err: rpcErr}
}

// IsError reports whether the response carries an error.
func (r *Response) IsError() bool {
	return r.Err != nil
}

// v2 responses omit whichever of result/error is unset.
type responseV2 struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// v1 responses carry no version field and always include both keys,
// with null filling the unused slot.
type responseV1 struct {
	ID     interface{}     `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// MarshalJSON emits the response in the shape of its version.
func (r *Response) MarshalJSON() ([]byte, error) {
	if r.Version == V2 {
		return json.Marshal(responseV2{
			JSONRPC: VersionTagV2,
			ID:      r.ID,
			Result:  r.Result,
			Error:   r.Err,
		})
	}
	result := r.Result
	if result == nil {
		result = json.RawMessage("null")
	}
	return json.Marshal(responseV1{
		ID:     r.ID,
		Result: result,
		Error:  r.Err,
	})
}

// ParseErrorResponse is the ready-made reply for input that could not
// be decoded into a Request at all. It is shaped V1 (the permissive
// default when no version could be read) with a null id.
func ParseErrorResponse() *Response {
	return NewErrorResponse(V1, nil, &Error{
		Code:    CodeParseError,
		Message: "Parse error",
	})
}

// TooLargeResponse is the ready-made reply for oversized input that
// was rejected before decoding.
func TooLargeResponse() *Response {
	return NewErrorResponse(V1, nil, &Error{
		Code:    CodeParseError,
		Message: "Request too large",
	})
}

// Notification is an outbound one-way message.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewNotification creates an outbound notification. Outbound traffic
// is always emitted in 2.0 shape.
func NewNotification(method string, params interface{}) (*Notification, error) {
	var paramsJSON json.RawMessage
	if params != nil {
		var err error
		paramsJSON, err = json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
	}
	return &Notification{
		JSONRPC: VersionTagV2,
		Method:  method,
		Params:  paramsJSON,
	}, nil
}
