package main

import (
	"context"
	"fmt"

	"github.com/corewire/mcpcore/internal/config"
	"github.com/corewire/mcpcore/internal/mcp"
)

// buildTransport constructs the Transport a profile describes, without
// starting it.
func buildTransport(p config.ServerProfile) (mcp.Transport, error) {
	switch p.Kind {
	case config.ProfileKindSSE:
		return mcp.NewSSETransport(mcp.SSETransportConfig{
			URL:     p.URL,
			Headers: p.Headers,
		}, nil), nil
	case config.ProfileKindStdio, "":
		if p.Command == "" {
			return nil, fmt.Errorf("profile %q has no command", p.Name)
		}
		return mcp.NewStdioTransport(mcp.StdioTransportConfig{
			Command: p.Command,
			Args:    p.Args,
			Env:     p.Env,
			Dir:     p.Cwd,
		}, nil), nil
	default:
		return nil, fmt.Errorf("profile %q has unknown kind %q", p.Name, p.Kind)
	}
}

// connectProfile loads cfg's profile by id, builds its transport, and
// completes the initialize handshake, returning a running Client the
// caller is responsible for Close-ing.
func connectProfile(ctx context.Context, id string) (*mcp.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	p := cfg.GetProfile(id)
	if p == nil {
		return nil, fmt.Errorf("profile %q not found", id)
	}

	transport, err := buildTransport(*p)
	if err != nil {
		return nil, err
	}

	opts := []mcp.Option{}
	if p.ProtocolVersion != "" {
		opts = append(opts, mcp.WithProtocolVersion(p.ProtocolVersion))
	}

	client := mcp.NewClient(transport, mcp.ServerInfo{Name: "mcpcore", Version: version}, opts...)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func resolveProfileID(args []string) (string, error) {
	if len(args) == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return "", err
		}
		if cfg.DefaultProfileID == "" {
			return "", fmt.Errorf("no profile id given and no default profile set")
		}
		return cfg.DefaultProfileID, nil
	}
	return args[0], nil
}
