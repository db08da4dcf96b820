package mcp

import "context"

// SamplingHandler answers a server-initiated sampling/createMessage
// request (§4.H "Server request"). The client only invokes this when both
// ClientCapabilities.HasSamplingHandler is set and a handler is supplied.
type SamplingHandler func(ctx context.Context, params SamplingCreateMessageParams) (SamplingCreateMessageResult, error)

// RootsHandler answers a server-initiated roots/list request.
type RootsHandler func(ctx context.Context) (RootsListResult, error)

// ProgressHandler is invoked for inbound progress notifications whose
// token is registered to one of the caller's in-flight requests (§4.H).
type ProgressHandler func(params ProgressParams)

// Logger is the pluggable log sink named in §6's configuration surface.
// NewClient uses a no-op logger unless WithLogger supplies one, and
// NewStdioTransport and NewSSETransport use a no-op logger when passed nil.
type Logger func(format string, args ...any)

func noopLogger(string, ...any) {}
