package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/corewire/mcpcore/internal/mcp"
	"github.com/spf13/cobra"
)

var pingTimeout time.Duration

var pingCmd = &cobra.Command{
	Use:   "ping [profile-id]",
	Short: "Connect to a profile and issue a liveness check",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPing,
}

func init() {
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 10*time.Second, "Overall timeout for connect + ping")
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	id, err := resolveProfileID(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
	defer cancel()

	start := time.Now()
	client, err := connectProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	if err := mcp.Ping(ctx, client); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	info := client.ServerInfo()
	fmt.Printf("ok: %s %s responded (connected %s)\n", info.Name, info.Version, humanize.Time(start))
	return nil
}
