package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildBinary builds the mcpcore binary for testing, mirroring the
// teacher's cmd/mcpmu/cli_test.go pattern.
func buildBinary(t *testing.T) string {
	t.Helper()

	binary := filepath.Join(t.TempDir(), "mcpcore")
	cmd := exec.Command("go", "build", "-o", binary, ".")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, out)
	}
	return binary
}

func setupTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"schemaVersion":1,"profiles":{}}`), 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

func runCLI(binary, configPath string, args ...string) (string, string, error) {
	fullArgs := append([]string{"--config", configPath}, args...)
	cmd := exec.Command(binary, fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func TestCLI_ProfilesAdd_Stdio(t *testing.T) {
	binary := buildBinary(t)
	configPath := setupTestConfig(t)

	stdout, stderr, err := runCLI(binary, configPath, "profiles", "add", "local", "--", "echo", "hello")
	if err != nil {
		t.Fatalf("profiles add failed: %v\nstdout: %s\nstderr: %s", err, stdout, stderr)
	}
	if !strings.Contains(stdout, `Added profile "local"`) {
		t.Errorf("expected success message, got: %s", stdout)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	profiles := cfg["profiles"].(map[string]any)
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
}

func TestCLI_ProfilesAdd_MissingSeparator(t *testing.T) {
	binary := buildBinary(t)
	configPath := setupTestConfig(t)

	stdout, stderr, err := runCLI(binary, configPath, "profiles", "add", "local", "echo", "hello")
	if err == nil {
		t.Fatal("expected error for missing -- separator")
	}
	output := stdout + stderr
	if !strings.Contains(output, "missing --") {
		t.Errorf("expected 'missing --' error, got: %s", output)
	}
}

func TestCLI_ProfilesAdd_SSE(t *testing.T) {
	binary := buildBinary(t)
	configPath := setupTestConfig(t)

	stdout, _, err := runCLI(binary, configPath, "profiles", "add", "remote", "--url", "https://example.com/mcp")
	if err != nil {
		t.Fatalf("profiles add failed: %v", err)
	}
	if !strings.Contains(stdout, `Added profile "remote"`) {
		t.Errorf("expected success message, got: %s", stdout)
	}
}

func TestCLI_ProfilesList_Empty(t *testing.T) {
	binary := buildBinary(t)
	configPath := setupTestConfig(t)

	stdout, stderr, err := runCLI(binary, configPath, "profiles", "list")
	if err != nil {
		t.Fatalf("profiles list failed: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stdout, "No profiles configured") {
		t.Errorf("expected empty message, got: %s", stdout)
	}
}

func TestCLI_ProfilesList_JSON(t *testing.T) {
	binary := buildBinary(t)
	configPath := setupTestConfig(t)

	_, _, _ = runCLI(binary, configPath, "profiles", "add", "local", "--", "echo", "hi")

	stdout, stderr, err := runCLI(binary, configPath, "profiles", "list", "--json")
	if err != nil {
		t.Fatalf("profiles list --json failed: %v\nstderr: %s", err, stderr)
	}
	var profiles []map[string]any
	if err := json.Unmarshal([]byte(stdout), &profiles); err != nil {
		t.Fatalf("parse JSON: %v\noutput: %s", err, stdout)
	}
	if len(profiles) != 1 || profiles[0]["name"] != "local" {
		t.Errorf("unexpected profiles: %v", profiles)
	}
}

func TestCLI_ProfilesRemove(t *testing.T) {
	binary := buildBinary(t)
	configPath := setupTestConfig(t)

	_, _, _ = runCLI(binary, configPath, "profiles", "add", "local", "--", "echo", "hi")

	data, _ := os.ReadFile(configPath)
	var cfg map[string]any
	_ = json.Unmarshal(data, &cfg)
	profiles := cfg["profiles"].(map[string]any)
	var id string
	for k := range profiles {
		id = k
	}

	stdout, stderr, err := runCLI(binary, configPath, "profiles", "remove", id)
	if err != nil {
		t.Fatalf("profiles remove failed: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stdout, "Removed profile") {
		t.Errorf("expected success message, got: %s", stdout)
	}

	listOut, _, _ := runCLI(binary, configPath, "profiles", "list")
	if !strings.Contains(listOut, "No profiles configured") {
		t.Errorf("expected profile to be gone, got: %s", listOut)
	}
}

func TestCLI_ProfilesRemove_NotFound(t *testing.T) {
	binary := buildBinary(t)
	configPath := setupTestConfig(t)

	stdout, stderr, err := runCLI(binary, configPath, "profiles", "remove", "zzzz")
	if err == nil {
		t.Fatal("expected error for non-existent profile")
	}
	output := stdout + stderr
	if !strings.Contains(output, "not found") {
		t.Errorf("expected 'not found' error, got: %s", output)
	}
}

func TestCLI_Ping_UnknownProfile(t *testing.T) {
	binary := buildBinary(t)
	configPath := setupTestConfig(t)

	stdout, stderr, err := runCLI(binary, configPath, "ping", "zzzz")
	if err == nil {
		t.Fatal("expected error for unknown profile")
	}
	output := stdout + stderr
	if !strings.Contains(output, "not found") {
		t.Errorf("expected 'not found' error, got: %s", output)
	}
}
