package mcp

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/corewire/mcpcore/internal/mcp/fakeserver"
)

// TestHelperProcess is not a real test: it re-execs this test binary as a
// fake MCP server subprocess, the pattern the teacher's mcptest/helper.go
// uses to exercise a Transport against a genuine child process rather than
// an in-memory pipe.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	cfgJSON := os.Getenv("FAKE_MCP_CFG")
	var cfg fakeserver.Config
	if cfgJSON != "" {
		if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
			os.Exit(2)
		}
	}

	if err := fakeserver.Serve(context.Background(), os.Stdin, os.Stdout, cfg); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

// fakeServerTransportConfig builds a StdioTransportConfig that re-execs this
// test binary into the fake server via TestHelperProcess.
func fakeServerTransportConfig(t *testing.T, cfg fakeserver.Config) StdioTransportConfig {
	t.Helper()
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal fake server config: %v", err)
	}
	return StdioTransportConfig{
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		Env: map[string]string{
			"GO_WANT_HELPER_PROCESS": "1",
			"FAKE_MCP_CFG":           string(cfgJSON),
		},
	}
}

func TestStdioTransportStartSendReceive(t *testing.T) {
	cfg := fakeServerTransportConfig(t, fakeserver.Config{ProtocolVersion: ProtocolVersion})
	transport := NewStdioTransport(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := transport.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer transport.Stop()

	frame, err := EncodeRequest(Request{ID: IntID(1), Method: "ping"})
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	if err := transport.Send(context.Background(), frame, time.Second); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case inbound := <-transport.Inbound():
		kind, _, _, resp, _, err := Decode(inbound)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if kind != FrameResponse || !resp.ID.Equal(IntID(1)) {
			t.Errorf("inbound = %+v, kind %v", resp, kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no response received")
	}
}

func TestStdioTransportRejectsEmbeddedNewline(t *testing.T) {
	cfg := fakeServerTransportConfig(t, fakeserver.Config{ProtocolVersion: ProtocolVersion})
	transport := NewStdioTransport(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := transport.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer transport.Stop()

	err := transport.Send(context.Background(), []byte("{\"a\":\n1}"), time.Second)
	if err == nil {
		t.Fatal("Send should reject a frame containing a raw newline")
	}
}

func TestStdioTransportUnknownCommandFailsFast(t *testing.T) {
	transport := NewStdioTransport(StdioTransportConfig{Command: "this-binary-does-not-exist-anywhere"}, nil)
	err := transport.Start(context.Background())
	if err == nil {
		t.Fatal("Start should fail for a command not on PATH")
	}
	if transport.State() != StateFailed {
		t.Errorf("State = %s, want failed", transport.State())
	}
}

func TestStdioTransportCrashPropagatesAsFailure(t *testing.T) {
	cfg := fakeServerTransportConfig(t, fakeserver.Config{
		ProtocolVersion:   ProtocolVersion,
		CrashOnMethod:     "ping",
		CrashExitCode:     1,
	})
	transport := NewStdioTransport(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := transport.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer transport.Stop()

	frame, _ := EncodeRequest(Request{ID: IntID(1), Method: "ping"})
	if err := transport.Send(context.Background(), frame, time.Second); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case _, ok := <-transport.Inbound():
		if ok {
			t.Fatal("expected Inbound to close after the child crashed, not deliver a frame")
		}
		if transport.Err() == nil {
			t.Error("Err() should be set after a crash")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("transport did not observe the child's crash")
	}
}
