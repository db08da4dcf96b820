package mcp

import (
	"encoding/json"
	"testing"
)

func TestDecodeClassifiesRequest(t *testing.T) {
	kind, req, _, _, _, err := Decode([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if kind != FrameRequest {
		t.Fatalf("kind = %v, want FrameRequest", kind)
	}
	if req.Method != "ping" || !req.ID.Equal(IntID(1)) {
		t.Errorf("req = %+v, want method ping id 1", req)
	}
}

func TestDecodeClassifiesNotification(t *testing.T) {
	kind, _, notif, _, _, err := Decode([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if kind != FrameNotification {
		t.Fatalf("kind = %v, want FrameNotification", kind)
	}
	if notif.Method != "notifications/initialized" {
		t.Errorf("notif.Method = %q", notif.Method)
	}
}

func TestDecodeClassifiesResponse(t *testing.T) {
	kind, _, _, resp, _, err := Decode([]byte(`{"jsonrpc":"2.0","id":"abc","result":{"ok":true}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if kind != FrameResponse {
		t.Fatalf("kind = %v, want FrameResponse", kind)
	}
	if !resp.ID.Equal(StringID("abc")) {
		t.Errorf("resp.ID = %v, want abc", resp.ID)
	}
}

func TestDecodeClassifiesError(t *testing.T) {
	kind, _, _, _, errFrame, err := Decode([]byte(`{"jsonrpc":"2.0","id":2,"error":{"code":-32601,"message":"not found"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if kind != FrameError {
		t.Fatalf("kind = %v, want FrameError", kind)
	}
	if errFrame.ID == nil || !errFrame.ID.Equal(IntID(2)) {
		t.Errorf("errFrame.ID = %v, want 2", errFrame.ID)
	}
	if errFrame.Err.Code != CodeMethodNotFound {
		t.Errorf("errFrame.Err.Code = %d, want %d", errFrame.Err.Code, CodeMethodNotFound)
	}
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	_, _, _, _, _, err := Decode([]byte(`{"jsonrpc":"1.0","id":1,"method":"ping"}`))
	if err == nil {
		t.Fatal("Decode succeeded with jsonrpc 1.0")
	}
}

func TestDecodeRejectsFrameWithNoShape(t *testing.T) {
	_, _, _, _, _, err := Decode([]byte(`{"jsonrpc":"2.0"}`))
	if err == nil {
		t.Fatal("Decode succeeded on a frame with neither method, result, nor error")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	params, _ := json.Marshal(map[string]any{"name": "echo"})
	frame, err := EncodeRequest(Request{ID: NewStringID(), Method: "tools/call", Params: params})
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}

	kind, req, _, _, _, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if kind != FrameRequest || req.Method != "tools/call" {
		t.Errorf("round trip = %+v, kind %v", req, kind)
	}
}

func TestAsTypedRejectsWrongMethod(t *testing.T) {
	req := Request{Method: "ping"}
	_, err := AsTyped[ToolsCallParams](req, MethodToolsCall)
	if err == nil {
		t.Fatal("AsTyped succeeded despite a method mismatch")
	}
	protoErr, ok := err.(*ProtocolError)
	if !ok || protoErr.Kind != "InvalidMethodForRequest" {
		t.Fatalf("err = %v, want InvalidMethodForRequest", err)
	}
}

func TestAsTypedDecodesParams(t *testing.T) {
	params, _ := json.Marshal(ToolsCallParams{Name: "echo"})
	req := Request{Method: string(MethodToolsCall), Params: params}
	out, err := AsTyped[ToolsCallParams](req, MethodToolsCall)
	if err != nil {
		t.Fatalf("AsTyped: %v", err)
	}
	if out.Name != "echo" {
		t.Errorf("out.Name = %q, want echo", out.Name)
	}
}

func TestRequestIDMarshalsByVariant(t *testing.T) {
	intRaw, err := json.Marshal(IntID(7))
	if err != nil || string(intRaw) != "7" {
		t.Errorf("IntID(7) marshaled to %s, err %v", intRaw, err)
	}
	strRaw, err := json.Marshal(StringID("x"))
	if err != nil || string(strRaw) != `"x"` {
		t.Errorf("StringID(x) marshaled to %s, err %v", strRaw, err)
	}
}

func TestRequestIDEqualityIsTyped(t *testing.T) {
	if IntID(1).Equal(StringID("1")) {
		t.Error("IntID(1) should not equal StringID(\"1\")")
	}
	if !IntID(1).Equal(IntID(1)) {
		t.Error("IntID(1) should equal itself")
	}
}

func TestRequestIDUsableAsMapKey(t *testing.T) {
	m := map[RequestID]string{
		IntID(1):       "one",
		StringID("a"): "a",
	}
	if m[IntID(1)] != "one" || m[StringID("a")] != "a" {
		t.Errorf("map lookups failed: %+v", m)
	}
}
