package fakeserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func serveOneShot(t *testing.T, cfg Config, requests ...string) []map[string]any {
	t.Helper()
	in := bytes.NewBufferString("")
	for _, r := range requests {
		in.WriteString(r)
		in.WriteByte('\n')
	}
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Serve(ctx, in, &out, cfg); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var responses []map[string]any
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var m map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("unmarshal response line %q: %v", scanner.Text(), err)
		}
		responses = append(responses, m)
	}
	return responses
}

func TestServeInitializeAndPing(t *testing.T) {
	responses := serveOneShot(t, Config{},
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2 (notification gets none)", len(responses))
	}
	if responses[0]["id"] != float64(1) {
		t.Errorf("first response id = %v, want 1", responses[0]["id"])
	}
	if responses[1]["id"] != float64(2) {
		t.Errorf("second response id = %v, want 2", responses[1]["id"])
	}
}

func TestServeToolsListReflectsConfig(t *testing.T) {
	cfg := Config{Tools: []Tool{{Name: "echo"}, {Name: "sum"}}}
	responses := serveOneShot(t, cfg, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
	result := responses[0]["result"].(map[string]any)
	tools := result["tools"].([]any)
	if len(tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(tools))
	}
}

func TestServeErrorsInjection(t *testing.T) {
	cfg := Config{Errors: map[string]JSONRPCError{"tools/call": {Code: -32602, Message: "nope"}}}
	responses := serveOneShot(t, cfg, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"x"}}`)
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
	if _, ok := responses[0]["error"]; !ok {
		t.Errorf("response = %+v, want an error field", responses[0])
	}
}

func TestServeFailOnAttemptOnlyAffectsThatAttempt(t *testing.T) {
	cfg := Config{FailOnAttempt: map[string]int{"ping": 1}}
	responses := serveOneShot(t, cfg,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(responses))
	}
	if _, ok := responses[0]["error"]; !ok {
		t.Errorf("first ping should fail, got %+v", responses[0])
	}
	if _, ok := responses[1]["error"]; ok {
		t.Errorf("second ping should succeed, got %+v", responses[1])
	}
}

func TestServeUnknownMethodReturnsMethodNotFound(t *testing.T) {
	responses := serveOneShot(t, Config{}, `{"jsonrpc":"2.0","id":1,"method":"nonexistent"}`)
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
	errObj, ok := responses[0]["error"].(map[string]any)
	if !ok {
		t.Fatalf("response = %+v, want an error object", responses[0])
	}
	if errObj["code"] != float64(-32601) {
		t.Errorf("error.code = %v, want -32601", errObj["code"])
	}
}

func TestServeToolHandlerOverridesDefault(t *testing.T) {
	cfg := Config{
		ToolHandler: func(name string, arguments json.RawMessage) ([]ContentBlock, bool, error) {
			return []ContentBlock{{Type: "text", Text: "custom:" + name}}, false, nil
		},
	}
	responses := serveOneShot(t, cfg, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo"}}`)
	result := responses[0]["result"].(map[string]any)
	content := result["content"].([]any)
	block := content[0].(map[string]any)
	if block["text"] != "custom:echo" {
		t.Errorf("content[0].text = %v, want custom:echo", block["text"])
	}
}
