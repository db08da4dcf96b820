// Package config provides the on-disk connection-profile schema for
// mcpcore: named server profiles a CLI or embedding application can select
// by id, persisted atomically and hot-reloaded via fsnotify.
package config

import "time"

// SchemaVersion is the current config schema version.
const SchemaVersion = 1

// ProfileKind selects which Transport a profile describes.
type ProfileKind string

const (
	ProfileKindStdio ProfileKind = "stdio"
	ProfileKindSSE   ProfileKind = "sse"
)

// ServerProfile is one named connection target (§6 "Transport configuration",
// SPEC_FULL.md "Config-driven connection profiles"). Field names mirror the
// teacher's ServerConfig so existing mcpServers-style JSON can be pasted in
// with minimal changes.
type ServerProfile struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Kind    ProfileKind       `json:"kind"`
	Enabled *bool             `json:"enabled,omitempty"` // nil treated as true

	// Stdio fields.
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Cwd     string            `json:"cwd,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	// SSE fields.
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// ProtocolVersion overrides the client's default advertised version,
	// for talking to a server pinned to an older release.
	ProtocolVersion string `json:"protocolVersion,omitempty"`
}

// IsEnabled reports whether the profile is enabled (nil defaults to true).
func (p ServerProfile) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// SetEnabled sets the enabled state.
func (p *ServerProfile) SetEnabled(enabled bool) {
	p.Enabled = &enabled
}

// ClientConfig is the root configuration structure persisted to disk.
type ClientConfig struct {
	SchemaVersion    int                      `json:"schemaVersion"`
	DefaultProfileID string                   `json:"defaultProfileId,omitempty"`
	Profiles         map[string]ServerProfile `json:"profiles"`

	// LastModified is excluded from hashConfig's structural hash (see
	// internal/config/watch.go) since it changes on every Save regardless
	// of whether the profiles themselves did.
	LastModified time.Time `json:"lastModified" hash:"ignore"`
}

// NewClientConfig returns an empty, schema-current configuration.
func NewClientConfig() *ClientConfig {
	return &ClientConfig{
		SchemaVersion: SchemaVersion,
		Profiles:      make(map[string]ServerProfile),
		LastModified:  time.Now(),
	}
}

// ProfileList returns the profiles as a slice in map iteration order; it
// does not sort them.
func (c *ClientConfig) ProfileList() []ServerProfile {
	profiles := make([]ServerProfile, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		profiles = append(profiles, p)
	}
	return profiles
}

// GetProfile returns a profile by id, or nil if not found.
func (c *ClientConfig) GetProfile(id string) *ServerProfile {
	if p, ok := c.Profiles[id]; ok {
		return &p
	}
	return nil
}
