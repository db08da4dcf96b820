package mcp

import (
	"encoding/json"
	"fmt"
)

// jsonrpcVersion is the only accepted value of the "jsonrpc" field (§3, §6).
const jsonrpcVersion = "2.0"

// Frame is the classification the decoder assigns to a raw JSON-RPC
// message (§3 "JSON-RPC envelope (wire)").
type Frame int

const (
	FrameUnknown Frame = iota
	FrameRequest
	FrameNotification
	FrameResponse
	FrameError
)

// wireEnvelope is the superset shape used to classify and decode an
// arbitrary incoming frame before committing to one of the four variants.
type wireEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Request is a decoded/encodable JSON-RPC request frame.
type Request struct {
	ID     RequestID
	Method string
	Params json.RawMessage
}

// Notification is a decoded/encodable JSON-RPC notification frame.
type Notification struct {
	Method string
	Params json.RawMessage
}

// Response is a decoded/encodable JSON-RPC success response frame.
type Response struct {
	ID     RequestID
	Result json.RawMessage
}

// ErrorFrame is a decoded/encodable JSON-RPC error response frame. The id
// may be absent (null) when the server could not associate the error with
// a request (e.g. a parse error on the whole frame).
type ErrorFrame struct {
	ID      *RequestID
	Err     *RPCError
}

// EncodeRequest marshals a request frame to wire bytes.
func EncodeRequest(r Request) ([]byte, error) {
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      RequestID       `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}{jsonrpcVersion, r.ID, r.Method, r.Params})
}

// EncodeNotification marshals a notification frame to wire bytes.
func EncodeNotification(n Notification) ([]byte, error) {
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}{jsonrpcVersion, n.Method, n.Params})
}

// EncodeResponse marshals a success response frame to wire bytes.
func EncodeResponse(r Response) ([]byte, error) {
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      RequestID       `json:"id"`
		Result  json.RawMessage `json:"result"`
	}{jsonrpcVersion, r.ID, r.Result})
}

// EncodeError marshals an error response frame to wire bytes.
func EncodeError(e ErrorFrame) ([]byte, error) {
	return json.Marshal(struct {
		JSONRPC string     `json:"jsonrpc"`
		ID      *RequestID `json:"id"`
		Error   *RPCError  `json:"error"`
	}{jsonrpcVersion, e.ID, e.Err})
}

// Decode classifies and parses a raw frame into exactly one of the four
// JSON-RPC variants (§3, §4.A). The jsonrpc version is validated first;
// any mismatch or absence is a hard InvalidRequest error.
func Decode(raw []byte) (Frame, Request, Notification, Response, ErrorFrame, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return FrameUnknown, Request{}, Notification{}, Response{}, ErrorFrame{},
			fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if env.JSONRPC != jsonrpcVersion {
		return FrameUnknown, Request{}, Notification{}, Response{}, ErrorFrame{},
			fmt.Errorf("%w: jsonrpc field is %q, want %q", ErrInvalidRequest, env.JSONRPC, jsonrpcVersion)
	}

	hasID := len(env.ID) > 0 && string(env.ID) != "null"
	hasMethod := env.Method != ""

	switch {
	case hasID && hasMethod:
		var id RequestID
		if err := json.Unmarshal(env.ID, &id); err != nil {
			return FrameUnknown, Request{}, Notification{}, Response{}, ErrorFrame{},
				fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return FrameRequest, Request{ID: id, Method: env.Method, Params: env.Params},
			Notification{}, Response{}, ErrorFrame{}, nil

	case !hasID && hasMethod:
		return FrameNotification, Request{}, Notification{Method: env.Method, Params: env.Params},
			Response{}, ErrorFrame{}, nil

	case env.Error != nil:
		var idPtr *RequestID
		if hasID {
			var id RequestID
			if err := json.Unmarshal(env.ID, &id); err != nil {
				return FrameUnknown, Request{}, Notification{}, Response{}, ErrorFrame{},
					fmt.Errorf("%w: %v", ErrInvalidRequest, err)
			}
			idPtr = &id
		}
		return FrameError, Request{}, Notification{}, Response{}, ErrorFrame{ID: idPtr, Err: env.Error}, nil

	case hasID && len(env.Result) > 0:
		var id RequestID
		if err := json.Unmarshal(env.ID, &id); err != nil {
			return FrameUnknown, Request{}, Notification{}, Response{}, ErrorFrame{},
				fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return FrameResponse, Request{}, Notification{}, Response{ID: id, Result: env.Result}, ErrorFrame{}, nil

	default:
		return FrameUnknown, Request{}, Notification{}, Response{}, ErrorFrame{},
			fmt.Errorf("%w: frame has neither method, result, nor error", ErrInvalidRequest)
	}
}

// AsTyped converts a generic Request into a typed params struct for the
// declared method, failing with InvalidMethodForRequest if the wire method
// does not match (§4.A "Conversion from a generic request to a typed one").
func AsTyped[P any](r Request, method RequestMethod) (P, error) {
	var params P
	if r.Method != string(method) {
		return params, invalidMethodForRequest(string(method), r.Method)
	}
	if len(r.Params) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(r.Params, &params); err != nil {
		return params, invalidParams(r.Method, err.Error())
	}
	return params, nil
}

// DecodeNotificationParams decodes a notification's params into the given
// typed struct, validating the method matches.
func DecodeNotificationParams[P any](n Notification, method NotificationMethod) (P, error) {
	var params P
	if n.Method != string(method) {
		return params, invalidMethodForRequest(string(method), n.Method)
	}
	if len(n.Params) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(n.Params, &params); err != nil {
		return params, invalidParams(n.Method, err.Error())
	}
	return params, nil
}
