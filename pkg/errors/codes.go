package errors

// JSON-RPC error codes used by the SDK. The table is deliberately
// small: request-semantic failures share the invalid-params code
// uniformly (missing parameters and unknown tools, prompts or
// resources alike), and everything unclassified is an internal error.
const (
	// CodeParseError rejects input that never became a Request.
	CodeParseError int = -32700

	// CodeInvalidRequest covers protocol-shape errors, including
	// unrecognized jsonrpc version tags.
	CodeInvalidRequest int = -32600

	// CodeMethodNotFound rejects methods outside the routing table.
	CodeMethodNotFound int = -32601

	// CodeInvalidParams covers missing or malformed parameters and
	// unknown tool/prompt/resource names.
	CodeInvalidParams int = -32602

	// CodeInternalError covers execution failures: I/O,
	// serialization, and unclassified capability errors.
	CodeInternalError int = -32603

	// CodeRequestCancelled reports a call that lost the race against
	// a cancellation notification. Outside the reserved range.
	CodeRequestCancelled int = -32800
)

// codeNames gives codes stable names for logs.
var codeNames = map[int]string{
	CodeParseError:       "ParseError",
	CodeInvalidRequest:   "InvalidRequest",
	CodeMethodNotFound:   "MethodNotFound",
	CodeInvalidParams:    "InvalidParams",
	CodeInternalError:    "InternalError",
	CodeRequestCancelled: "RequestCancelled",
}

// CodeName returns the name of a known code, or "UnknownError".
func CodeName(code int) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return "UnknownError"
}
