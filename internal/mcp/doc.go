// Package mcp implements the client side of the Model Context Protocol: a
// bidirectional JSON-RPC 2.0 peer that speaks to an MCP server over a
// pluggable byte-framed transport (stdio or Server-Sent Events).
//
// The package is organized leaves-first: ids.go and methods.go hold the
// closed data model, codec.go the wire encoding, transport.go the transport
// contract and configuration, retry.go the backoff schedule, registry.go the
// pending-request correlator, session.go the connection state machine,
// dispatcher.go the inbound message router, and client.go the public
// surface callers use.
package mcp
