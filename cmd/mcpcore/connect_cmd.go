package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var connectCmdTimeout time.Duration

var connectCmd = &cobra.Command{
	Use:   "connect [profile-id]",
	Short: "Complete the initialize handshake against a profile and print its capabilities",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConnect,
}

func init() {
	connectCmd.Flags().DurationVar(&connectCmdTimeout, "timeout", 10*time.Second, "Overall timeout for the handshake")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	id, err := resolveProfileID(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), connectCmdTimeout)
	defer cancel()

	client, err := connectProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	info := client.ServerInfo()
	caps, _ := client.ServerCapabilities()
	fmt.Printf("connected to %s %s\n", info.Name, info.Version)
	fmt.Printf("capabilities: tools.listChanged=%v resources.listChanged=%v resources.subscribe=%v prompts.listChanged=%v logging=%v sampling=%v\n",
		caps.ToolsListChanged, caps.ResourcesListChanged, caps.ResourcesSubscribe, caps.PromptsListChanged, caps.Logging, caps.Sampling)
	return nil
}
