// Package pkg groups the SDK's sub-packages. Servers are normally
// assembled from pkg/server (dispatch), pkg/protocol (wire types) and
// pkg/transport (stdio framing); pkg/errors, pkg/logging,
// pkg/observability, pkg/pagination and pkg/utils support them. See
// the root package for a worked example.
package pkg
