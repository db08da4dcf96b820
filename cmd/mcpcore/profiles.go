package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/corewire/mcpcore/internal/config"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage MCP server connection profiles",
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func loadConfig() (*config.ClientConfig, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func saveConfig(cfg *config.ClientConfig) error {
	if configPath != "" {
		return config.SaveTo(configPath, cfg)
	}
	return config.Save(cfg)
}

// resolveConfigPath returns the on-disk path loadConfig/saveConfig actually
// use, for components (the TUI's config watcher) that need the real path
// rather than the possibly-empty --config flag value.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.Path()
}

// --- profiles add ---

var (
	addEnvFlags []string
	addCwd      string
	addURL      string
	addProtocol string
)

var profilesAddCmd = &cobra.Command{
	Use:   "add <name> [-- <command> [args...]]",
	Short: "Add a connection profile",
	Long: `Add a new MCP server connection profile.

For stdio servers, the command and arguments follow the -- separator.
For SSE servers, pass --url.

Examples:
  mcpcore profiles add local -- npx -y @upstash/context7-mcp
  mcpcore profiles add remote --url https://example.com/mcp/sse`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProfilesAdd,
}

func init() {
	profilesAddCmd.Flags().StringArrayVarP(&addEnvFlags, "env", "e", nil, "Environment variable (KEY=VALUE), can be repeated")
	profilesAddCmd.Flags().StringVar(&addCwd, "cwd", "", "Working directory for a stdio server")
	profilesAddCmd.Flags().StringVar(&addURL, "url", "", "Server URL for an SSE transport")
	profilesAddCmd.Flags().StringVar(&addProtocol, "protocol-version", "", "Override the advertised protocol version")
	profilesCmd.AddCommand(profilesAddCmd)
}

func runProfilesAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	env, err := parseEnvFlags(addEnvFlags)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	p := config.ServerProfile{
		Name:            name,
		Env:             env,
		ProtocolVersion: addProtocol,
	}

	if addURL != "" {
		p.Kind = config.ProfileKindSSE
		p.URL = addURL
	} else {
		dashIdx := cmd.ArgsLenAtDash()
		if dashIdx == -1 {
			return fmt.Errorf("missing -- separator\n\nUsage: mcpcore profiles add <name> -- <command> [args...]")
		}
		cmdArgs := args[dashIdx:]
		if len(cmdArgs) < 1 {
			return fmt.Errorf("missing command after --\n\nUsage: mcpcore profiles add <name> -- <command> [args...]")
		}
		p.Kind = config.ProfileKindStdio
		p.Command = cmdArgs[0]
		p.Args = cmdArgs[1:]
		p.Cwd = addCwd
	}

	id, err := cfg.AddProfile(p)
	if err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Added profile %q (id %s)\n", name, id)
	return nil
}

func parseEnvFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	env := make(map[string]string)
	for _, kv := range flags {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --env format %q: expected KEY=VALUE", kv)
		}
		if parts[0] == "" {
			return nil, fmt.Errorf("invalid --env format %q: key cannot be empty", kv)
		}
		env[parts[0]] = parts[1]
	}
	return env, nil
}

// --- profiles list ---

var profilesListJSON bool

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connection profiles",
	RunE:  runProfilesList,
}

func init() {
	profilesListCmd.Flags().BoolVar(&profilesListJSON, "json", false, "Output as JSON")
	profilesCmd.AddCommand(profilesListCmd)
}

func runProfilesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	profiles := cfg.ProfileList()
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })

	if profilesListJSON {
		data, err := json.MarshalIndent(profiles, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(profiles) == 0 {
		fmt.Println("No profiles configured")
		return nil
	}

	nameWidth, kindWidth := 4, 4
	for _, p := range profiles {
		if len(p.Name) > nameWidth {
			nameWidth = len(p.Name)
		}
		if len(p.Kind) > kindWidth {
			kindWidth = len(p.Kind)
		}
	}

	fmt.Printf("%-4s  %-*s  %-*s  %-24s  %s\n", "ID", nameWidth, "NAME", kindWidth, "KIND", "TARGET", "ENABLED")
	for _, p := range profiles {
		enabled := "yes"
		if !p.IsEnabled() {
			enabled = "no"
		}
		fmt.Printf("%-4s  %-*s  %-*s  %-24s  %s\n", p.ID, nameWidth, p.Name, kindWidth, string(p.Kind), profileTarget(p), enabled)
	}
	return nil
}

func profileTarget(p config.ServerProfile) string {
	if p.Kind == config.ProfileKindSSE {
		return p.URL
	}
	if len(p.Args) == 0 {
		return p.Command
	}
	return p.Command + " " + strings.Join(p.Args, " ")
}

// --- profiles remove ---

var profilesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a connection profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesRemove,
}

func init() {
	profilesCmd.AddCommand(profilesRemoveCmd)
}

func runProfilesRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.DeleteProfile(args[0]); err != nil {
		return err
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("Removed profile %q\n", args[0])
	return nil
}
