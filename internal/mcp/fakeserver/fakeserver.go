// Package fakeserver is a scriptable MCP peer for exercising internal/mcp's
// Client against realistic and adversarial wire behavior, adapted from the
// teacher's internal/mcptest/fakeserver (protocol.go, serve.go) and
// generalized to this repo's RequestID shape. It answers initialize, ping,
// tools/list, tools/call, resources/list and prompts/list; any other method
// gets a method-not-found error.
package fakeserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"time"
)

// Config controls the fake server's behavior (§8 end-to-end scenarios).
type Config struct {
	ProtocolVersion string
	Tools           []Tool
	Resources       []Resource
	Prompts         []Prompt

	Delays map[string]time.Duration
	Errors map[string]JSONRPCError

	CrashOnMethod     string
	CrashOnNthRequest int
	CrashExitCode     int

	FailOnAttempt map[string]int

	SendNotificationBeforeResponse bool
	SendMismatchedIDFirst          bool
	Malformed                      bool

	// CancelInsteadOfRespond maps a request method to a reason string: when
	// set, a request for that method gets a server-initiated
	// notifications/cancelled for its own id instead of a response, for
	// exercising the client's inbound-cancel handling (§4.H(a)).
	CancelInsteadOfRespond map[string]string

	ToolHandler ToolHandler `json:"-"`
}

// Tool mirrors internal/mcp.Tool's wire shape without importing it, keeping
// this package independently testable against any MCP client.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Resource mirrors internal/mcp.Resource's wire shape.
type Resource struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// Prompt mirrors internal/mcp.Prompt's wire shape.
type Prompt struct {
	Name string `json:"name"`
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ContentBlock is a minimal text content block for tool/prompt results.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolHandler lets a test script the result of a specific tools/call.
type ToolHandler func(name string, arguments json.RawMessage) ([]ContentBlock, bool, error)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

type rpcNotification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

func writeFrame(out io.Writer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	out.Write(data)
	out.Write([]byte("\n"))
}

func writeResponse(out io.Writer, id json.RawMessage, result any, cfg Config) {
	if cfg.SendNotificationBeforeResponse {
		writeFrame(out, rpcNotification{JSONRPC: "2.0", Method: "notifications/message", Params: map[string]any{"level": "debug", "data": "noise"}})
	}
	if cfg.SendMismatchedIDFirst {
		writeFrame(out, rpcResponse{JSONRPC: "2.0", ID: json.RawMessage(`999999`), Result: json.RawMessage(`{}`)})
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return
	}
	writeFrame(out, rpcResponse{JSONRPC: "2.0", ID: id, Result: resultJSON})
}

func writeError(out io.Writer, id json.RawMessage, rpcErr JSONRPCError, cfg Config) {
	if cfg.SendNotificationBeforeResponse {
		writeFrame(out, rpcNotification{JSONRPC: "2.0", Method: "notifications/message", Params: map[string]any{"level": "debug", "data": "noise"}})
	}
	writeFrame(out, rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcErr})
}

// Serve runs the fake server, reading NDJSON requests from in and writing
// NDJSON responses to out until in reaches EOF or ctx is cancelled.
func Serve(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	if cfg.ProtocolVersion == "" {
		cfg.ProtocolVersion = "2025-06-18"
	}
	reader := bufio.NewReader(in)
	requestCount := 0
	attempts := make(map[string]int)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return err
		}

		requestCount++
		attempts[req.Method]++

		if cfg.CrashOnNthRequest > 0 && requestCount >= cfg.CrashOnNthRequest {
			os.Exit(cfg.CrashExitCode)
		}
		if cfg.CrashOnMethod != "" && req.Method == cfg.CrashOnMethod {
			os.Exit(cfg.CrashExitCode)
		}

		if delay, ok := cfg.Delays[req.Method]; ok {
			time.Sleep(delay)
		}

		if cfg.Malformed {
			out.Write([]byte("this is not valid json\n"))
			continue
		}

		if req.Method == "notifications/initialized" || req.Method == "notifications/cancelled" {
			continue // notifications carry no id and need no response
		}

		if failAttempt, ok := cfg.FailOnAttempt[req.Method]; ok && attempts[req.Method] == failAttempt {
			writeError(out, req.ID, JSONRPCError{Code: -32603, Message: "simulated failure on attempt"}, cfg)
			continue
		}

		if reason, ok := cfg.CancelInsteadOfRespond[req.Method]; ok {
			writeFrame(out, rpcNotification{
				JSONRPC: "2.0",
				Method:  "notifications/cancelled",
				Params:  map[string]any{"requestId": json.RawMessage(req.ID), "reason": reason},
			})
			continue
		}

		if rpcErr, ok := cfg.Errors[req.Method]; ok {
			writeError(out, req.ID, rpcErr, cfg)
			continue
		}

		cfg.handle(out, req)
	}
}

func (cfg Config) handle(out io.Writer, req rpcRequest) {
	switch req.Method {
	case "initialize":
		writeResponse(out, req.ID, map[string]any{
			"protocolVersion": cfg.ProtocolVersion,
			"serverInfo":      map[string]any{"name": "fakeserver", "version": "1.0.0"},
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
				"prompts":   map[string]any{},
			},
		}, cfg)

	case "ping":
		writeResponse(out, req.ID, map[string]any{}, cfg)

	case "tools/list":
		tools := cfg.Tools
		if tools == nil {
			tools = []Tool{}
		}
		writeResponse(out, req.ID, map[string]any{"tools": tools}, cfg)

	case "tools/call":
		var params struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		_ = json.Unmarshal(req.Params, &params)
		if cfg.ToolHandler != nil {
			content, isErr, err := cfg.ToolHandler(params.Name, params.Arguments)
			if err != nil {
				writeError(out, req.ID, JSONRPCError{Code: -32603, Message: err.Error()}, cfg)
				return
			}
			writeResponse(out, req.ID, map[string]any{"content": content, "isError": isErr}, cfg)
			return
		}
		writeResponse(out, req.ID, map[string]any{
			"content": []ContentBlock{{Type: "text", Text: "called " + params.Name}},
		}, cfg)

	case "resources/list":
		resources := cfg.Resources
		if resources == nil {
			resources = []Resource{}
		}
		writeResponse(out, req.ID, map[string]any{"resources": resources}, cfg)

	case "prompts/list":
		prompts := cfg.Prompts
		if prompts == nil {
			prompts = []Prompt{}
		}
		writeResponse(out, req.ID, map[string]any{"prompts": prompts}, cfg)

	default:
		writeError(out, req.ID, JSONRPCError{Code: -32601, Message: "method not found"}, cfg)
	}
}
