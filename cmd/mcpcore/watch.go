package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [profile-id]",
	Short: "Connect to a profile and print its notification stream until interrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	id, err := resolveProfileID(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client, err := connectProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	fmt.Printf("watching %s (ctrl-c to stop)\n", id)
	for {
		select {
		case event := <-client.Notifications():
			fmt.Printf("[%s] %s\n", humanize.Time(event.Timestamp()), event.Method())
		case <-sigCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
