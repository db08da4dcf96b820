package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDir  = ".config/mcpcore"
	configFile = "config.json"
)

// Path returns the full path to the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, configDir, configFile), nil
}

// Load reads the configuration from disk, returning a new empty
// configuration if the file doesn't exist.
func Load() (*ClientConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from an explicit path.
func LoadFrom(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewClientConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg ClientConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]ServerProfile)
	}
	for id, p := range cfg.Profiles {
		if p.ID == "" {
			p.ID = id
			cfg.Profiles[id] = p
		}
	}
	return &cfg, nil
}

// Save writes the configuration to disk atomically via a temp-file-then-
// rename, matching the teacher's config.go persistence pattern.
func Save(cfg *ClientConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the configuration to an explicit path.
func SaveTo(path string, cfg *ClientConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	cfg.LastModified = time.Now()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// GenerateID creates a short unique profile id: 4 characters [a-z0-9].
func GenerateID() string {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%04x", time.Now().UnixNano()&0xFFFF)
	}
	return hex.EncodeToString(b)
}

// ValidateID checks that id is a well-formed profile id.
func ValidateID(id string) error {
	if len(id) != 4 {
		return errors.New("id must be 4 characters")
	}
	if strings.Contains(id, ".") {
		return errors.New("id cannot contain '.'")
	}
	for _, c := range id {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return errors.New("id must contain only [a-z0-9]")
		}
	}
	return nil
}

// AddProfile inserts p into the config, generating an id if none is set.
func (c *ClientConfig) AddProfile(p ServerProfile) (string, error) {
	if p.ID == "" {
		for {
			p.ID = GenerateID()
			if _, exists := c.Profiles[p.ID]; !exists {
				break
			}
		}
	}
	if err := ValidateID(p.ID); err != nil {
		return "", fmt.Errorf("invalid id: %w", err)
	}
	if _, exists := c.Profiles[p.ID]; exists {
		return "", fmt.Errorf("profile id %q already exists", p.ID)
	}
	if p.Kind == "" {
		p.Kind = ProfileKindStdio
	}
	c.Profiles[p.ID] = p
	return p.ID, nil
}

// UpdateProfile replaces an existing profile by id.
func (c *ClientConfig) UpdateProfile(p ServerProfile) error {
	if _, exists := c.Profiles[p.ID]; !exists {
		return fmt.Errorf("profile %q not found", p.ID)
	}
	c.Profiles[p.ID] = p
	return nil
}

// DeleteProfile removes a profile by id.
func (c *ClientConfig) DeleteProfile(id string) error {
	if _, exists := c.Profiles[id]; !exists {
		return fmt.Errorf("profile %q not found", id)
	}
	delete(c.Profiles, id)
	if c.DefaultProfileID == id {
		c.DefaultProfileID = ""
	}
	return nil
}
