package mcp

import (
	"encoding/json"
	"testing"
	"time"
)

func echoDecode(raw json.RawMessage) (any, error) {
	var v map[string]any
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func TestRegistryCompleteDeliversValue(t *testing.T) {
	r := NewRegistry()
	pr, err := r.Register(StringID("a"), "ping", 0, echoDecode, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := r.Complete(StringID("a"), json.RawMessage(`{"ok":true}`), nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	out := <-pr.done
	if out.err != nil || out.rpcErr != nil {
		t.Fatalf("outcome = %+v, want a clean value", out)
	}
	m, ok := out.value.(map[string]any)
	if !ok || m["ok"] != true {
		t.Errorf("decoded value = %+v", out.value)
	}
	if r.Len() != 0 {
		t.Errorf("registry still has %d entries after Complete", r.Len())
	}
}

func TestRegistryCompleteDeliversRPCError(t *testing.T) {
	r := NewRegistry()
	pr, err := r.Register(StringID("a"), "ping", 0, echoDecode, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	rpcErr := &RPCError{Code: CodeInternalError, Message: "boom"}
	if err := r.Complete(StringID("a"), nil, rpcErr); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	out := <-pr.done
	if out.rpcErr != rpcErr {
		t.Fatalf("outcome.rpcErr = %v, want %v", out.rpcErr, rpcErr)
	}

	pr.mu.Lock()
	state := pr.state
	pr.mu.Unlock()
	if state != pendingFailed {
		t.Errorf("state = %v, want pendingFailed (a server RPC error is a Failed transition)", state)
	}
}

func TestRegistryStateOf(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.State(StringID("missing")); ok {
		t.Error("State for an unregistered id should report not-found")
	}

	pr, err := r.Register(StringID("a"), "ping", 0, echoDecode, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	state, ok := r.State(StringID("a"))
	if !ok || state != pendingPending {
		t.Fatalf("State = %v, %v, want pendingPending, true", state, ok)
	}

	if err := r.Complete(StringID("a"), json.RawMessage(`{}`), nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	<-pr.done
	if _, ok := r.State(StringID("a")); ok {
		t.Error("State should report not-found once a request is removed as terminal")
	}
}

func TestRegistryCompleteDecodeFailureTransitionsToFailed(t *testing.T) {
	r := NewRegistry()
	failing := func(raw json.RawMessage) (any, error) {
		return nil, errInvalidMessage("not the expected shape")
	}
	pr, err := r.Register(StringID("a"), "ping", 0, failing, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := r.Complete(StringID("a"), json.RawMessage(`{}`), nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	out := <-pr.done
	if out.err == nil {
		t.Fatal("expected a decode error on the outcome")
	}
	pr.mu.Lock()
	state := pr.state
	pr.mu.Unlock()
	if state != pendingFailed {
		t.Errorf("state = %v, want pendingFailed", state)
	}
}

func TestRegistryDuplicateIDRejected(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(StringID("a"), "ping", 0, nil, nil); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := r.Register(StringID("a"), "ping", 0, nil, nil); err == nil {
		t.Fatal("second Register with the same id succeeded")
	}
}

func TestRegistryReservedIDEnforced(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(ReservedInitializeID, "ping", 0, nil, nil); err == nil {
		t.Fatal("reserved id accepted for a non-initialize method")
	}
	if _, err := r.Register(StringID("x"), string(MethodInitialize), 0, nil, nil); err == nil {
		t.Fatal("initialize accepted with a non-reserved id")
	}
	if _, err := r.Register(ReservedInitializeID, string(MethodInitialize), 0, nil, nil); err != nil {
		t.Fatalf("initialize with the reserved id should be accepted: %v", err)
	}
}

func TestRegistryCancelRejectsTerminalEntry(t *testing.T) {
	r := NewRegistry()
	pr, _ := r.Register(StringID("a"), "ping", 0, echoDecode, nil)
	if err := r.Complete(StringID("a"), json.RawMessage(`{}`), nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	<-pr.done

	if err := r.Cancel(StringID("a")); err == nil {
		t.Fatal("Cancel succeeded on an already-completed entry")
	}
}

func TestRegistryTimeoutFiresAfterDuration(t *testing.T) {
	r := NewRegistry()
	pr, err := r.Register(StringID("a"), "ping", 20*time.Millisecond, echoDecode, nil)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	select {
	case out := <-pr.done:
		if out.err == nil {
			t.Fatal("expected a timeout error")
		}
		transportErr, ok := out.err.(*TransportError)
		if !ok || transportErr.Kind != "Timeout" {
			t.Errorf("out.err = %v, want a Timeout TransportError", out.err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout did not fire")
	}
	if r.Len() != 0 {
		t.Errorf("registry still has %d entries after timeout", r.Len())
	}
}

func TestRegistryFailAllDrainsRegistry(t *testing.T) {
	r := NewRegistry()
	pr1, _ := r.Register(StringID("a"), "ping", 0, echoDecode, nil)
	pr2, _ := r.Register(StringID("b"), "ping", 0, echoDecode, nil)

	cause := errConnectionFailed("transport died")
	r.FailAll(cause)

	for _, pr := range []*pendingRequest{pr1, pr2} {
		out := <-pr.done
		if out.err != cause {
			t.Errorf("outcome.err = %v, want %v", out.err, cause)
		}
	}
	if r.Len() != 0 {
		t.Errorf("registry has %d entries after FailAll", r.Len())
	}
}

func TestRegistryCancelAllDeliversCancelled(t *testing.T) {
	r := NewRegistry()
	pr, _ := r.Register(StringID("a"), "ping", 0, echoDecode, nil)

	r.CancelAll()

	out := <-pr.done
	if _, ok := out.err.(*ErrRequestCancelled); !ok {
		t.Errorf("outcome.err = %v, want *ErrRequestCancelled", out.err)
	}
}

func TestRegistryProgressTokenBinding(t *testing.T) {
	r := NewRegistry()
	id := StringID("a")
	if _, err := r.Register(id, "tools/call", 0, echoDecode, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if bound := r.RegisterProgressToken(ProgressToken("tok"), id); !bound {
		t.Fatal("first RegisterProgressToken should succeed")
	}
	if bound := r.RegisterProgressToken(ProgressToken("tok"), id); bound {
		t.Fatal("second RegisterProgressToken with the same token should fail")
	}

	got, ok := r.ResolveProgressToken(ProgressToken("tok"))
	if !ok || !got.Equal(id) {
		t.Errorf("ResolveProgressToken = %v, %v, want %v, true", got, ok, id)
	}
}
