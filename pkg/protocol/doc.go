// Package protocol defines the wire-level message model of the
// tool-invocation protocol: requests, responses, notifications, and
// the capability payload types, for both the JSON-RPC 1.0 and 2.0
// dialects.
//
// Version handling follows a best-effort-interoperability policy. A
// request tagged "2.0" is answered in 2.0 shape (jsonrpc field set,
// exactly one of result/error present). A request tagged "1.0", or
// carrying no tag at all, is answered in 1.0 shape (no jsonrpc field,
// both result and error keys always present with null in the unused
// slot). Any other tag is an error, but the detected fallback is V2
// so that the reply remains parseable by a modern peer.
//
// Responses are built through NewResponse and NewErrorResponse so the
// version-shape rules cannot be violated by hand-assembled structs.
// ParseErrorResponse and TooLargeResponse are ready-made replies for
// transport glue to emit when input is rejected before a Request is
// ever constructed.
package protocol
