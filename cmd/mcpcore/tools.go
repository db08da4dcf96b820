package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/corewire/mcpcore/internal/cliui"
	"github.com/corewire/mcpcore/internal/mcp"
	"github.com/spf13/cobra"
)

var toolsTimeout time.Duration

var listToolsCmd = &cobra.Command{
	Use:   "list-tools [profile-id]",
	Short: "List a profile's tools",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runListTools,
}

var callToolCmd = &cobra.Command{
	Use:   "call-tool <profile-id> <tool-name> [--args '{...}']",
	Short: "Invoke a tool",
	Args:  cobra.ExactArgs(2),
	RunE:  runCallTool,
}

var toolsCallArgsJSON string

func init() {
	listToolsCmd.Flags().DurationVar(&toolsTimeout, "timeout", 30*time.Second, "Overall timeout for connect + request")
	callToolCmd.Flags().DurationVar(&toolsTimeout, "timeout", 30*time.Second, "Overall timeout for connect + request")
	callToolCmd.Flags().StringVar(&toolsCallArgsJSON, "args", "{}", "JSON object of tool arguments")
	rootCmd.AddCommand(listToolsCmd)
	rootCmd.AddCommand(callToolCmd)
}

func runListTools(cmd *cobra.Command, args []string) error {
	id, err := resolveProfileID(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), toolsTimeout)
	defer cancel()

	client, err := connectProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	var tools []mcp.Tool
	cursor := ""
	for {
		page, err := mcp.ListTools(ctx, client, cursor)
		if err != nil {
			return fmt.Errorf("tools/list: %w", err)
		}
		tools = append(tools, page.Tools...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if len(tools) == 0 {
		fmt.Println("No tools exposed")
		return nil
	}

	for _, t := range tools {
		line := t.Name
		if t.Description != "" {
			line += " - " + t.Description
		}
		if n, err := cliui.EstimateTokens(t.Description); err == nil && n > 0 {
			line += fmt.Sprintf(" (~%d tokens)", n)
		}
		fmt.Println(line)
	}
	return nil
}

func runCallTool(cmd *cobra.Command, args []string) error {
	id, toolName := args[0], args[1]

	var arguments map[string]any
	if err := json.Unmarshal([]byte(toolsCallArgsJSON), &arguments); err != nil {
		return fmt.Errorf("invalid --args JSON: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), toolsTimeout)
	defer cancel()

	client, err := connectProfile(ctx, id)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	result, err := mcp.CallTool(ctx, client, toolName, arguments)
	if err != nil {
		return fmt.Errorf("tools/call: %w", err)
	}

	var text []string
	for _, block := range result.Content {
		var decoded struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(block, &decoded); err == nil && decoded.Type == "text" {
			text = append(text, decoded.Text)
		}
	}
	if result.IsError {
		return fmt.Errorf("tool reported an error: %s", strings.Join(text, "\n"))
	}
	fmt.Println(strings.Join(text, "\n"))
	return nil
}
