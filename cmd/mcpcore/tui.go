package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/corewire/mcpcore/internal/cliui"
	"github.com/corewire/mcpcore/internal/config"
	"github.com/corewire/mcpcore/internal/mcp"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

// pickerModel is a fuzzy-filterable list of profiles, the entry point for
// the default no-subcommand invocation. Selecting a profile connects,
// lists its tools, and returns to the list on disconnect.
type pickerModel struct {
	theme      cliui.Theme
	cfg        *config.ClientConfig
	all        []config.ServerProfile
	filtered   []config.ServerProfile
	query      string
	cursor     int
	status     string
	quitting   bool
	spin       spinner.Model
	connecting bool
}

func newPickerModel(cfg *config.ClientConfig) pickerModel {
	all := cfg.ProfileList()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	s := spinner.New()
	s.Spinner = spinner.Dot
	return pickerModel{
		theme:    cliui.New(),
		cfg:      cfg,
		all:      all,
		filtered: all,
		spin:     s,
	}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if status, ok := msg.(connectStatusMsg); ok {
		m.connecting = false
		m.status = string(status)
		return m, nil
	}
	if reload, ok := msg.(configReloadedMsg); ok {
		m.cfg = reload.cfg
		m.all = m.cfg.ProfileList()
		sort.Slice(m.all, func(i, j int) bool { return m.all[i].Name < m.all[j].Name })
		m.refilter()
		m.status = "config reloaded from disk"
		return m, nil
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		if !m.connecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		if len(m.filtered) == 0 {
			return m, nil
		}
		m.connecting = true
		return m, tea.Batch(m.spin.Tick, m.connectSelected())
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case "backspace":
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
			m.refilter()
		}
	case "ctrl+a":
		return m, m.runAddForm()
	default:
		if len(keyMsg.Runes) == 1 {
			m.query += string(keyMsg.Runes)
			m.refilter()
		}
	}
	return m, nil
}

func (m *pickerModel) refilter() {
	if m.query == "" {
		m.filtered = m.all
		m.cursor = 0
		return
	}
	names := make([]string, len(m.all))
	for i, p := range m.all {
		names[i] = p.Name
	}
	matches := fuzzy.Find(m.query, names)
	m.filtered = m.filtered[:0]
	for _, match := range matches {
		m.filtered = append(m.filtered, m.all[match.Index])
	}
	m.cursor = 0
}

type connectStatusMsg string

// configReloadedMsg carries a freshly reloaded config in from the
// background config.Watcher started by runTUI.
type configReloadedMsg struct {
	cfg *config.ClientConfig
}

func (m pickerModel) connectSelected() tea.Cmd {
	profile := m.filtered[m.cursor]
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		client, err := connectProfile(ctx, profile.ID)
		if err != nil {
			return connectStatusMsg(fmt.Sprintf("connect %q failed: %v", profile.Name, err))
		}
		defer client.Close()

		result, err := mcp.ListTools(ctx, client, "")
		if err != nil {
			return connectStatusMsg(fmt.Sprintf("connected to %q but tools/list failed: %v", profile.Name, err))
		}
		return connectStatusMsg(fmt.Sprintf("%q: %d tool(s) - %s", profile.Name, len(result.Tools), toolNames(result.Tools)))
	}
}

func toolNames(tools []mcp.Tool) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

// runAddForm drops into a huh form to collect a new stdio profile, adapted
// from the teacher's internal/tui/views/server_form.go field set.
func (m pickerModel) runAddForm() tea.Cmd {
	return func() tea.Msg {
		var name, command, argsLine string
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Profile name").Value(&name),
			huh.NewInput().Title("Command").Value(&command),
			huh.NewInput().Title("Arguments (space separated)").Value(&argsLine),
		))
		if err := form.Run(); err != nil {
			return connectStatusMsg(fmt.Sprintf("add cancelled: %v", err))
		}
		if name == "" || command == "" {
			return connectStatusMsg("add cancelled: name and command are required")
		}

		p := config.ServerProfile{Name: name, Kind: config.ProfileKindStdio, Command: command}
		if argsLine != "" {
			p.Args = strings.Fields(argsLine)
		}
		id, err := m.cfg.AddProfile(p)
		if err != nil {
			return connectStatusMsg(fmt.Sprintf("add failed: %v", err))
		}
		if err := saveConfig(m.cfg); err != nil {
			return connectStatusMsg(fmt.Sprintf("save failed: %v", err))
		}
		return connectStatusMsg(fmt.Sprintf("added profile %q (id %s)", name, id))
	}
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("mcpcore profiles") + "\n")
	b.WriteString(m.theme.Muted.Render("/ "+m.query) + "\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(m.theme.Faint.Render("no matching profiles") + "\n")
	}
	for i, p := range m.filtered {
		line := fmt.Sprintf("%s %s (%s)", m.theme.StateIcon(false, false), p.Name, p.Kind)
		if i == m.cursor {
			line = m.theme.ItemSelected.Render("> " + line)
		} else {
			line = m.theme.Item.Render("  " + line)
		}
		b.WriteString(line + "\n")
	}

	status := m.status
	if m.connecting {
		status = m.spin.View() + " connecting..."
	}
	b.WriteString("\n" + m.theme.StatusBar.Render(status) + "\n")
	b.WriteString(m.theme.Faint.Render("enter: connect  ctrl+a: add profile  esc: quit") + "\n")
	return b.String()
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the interactive profile picker",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var program *tea.Program
	if path, err := resolveConfigPath(); err == nil {
		watcher, err := config.NewWatcher(path, func(newCfg *config.ClientConfig, err error) {
			if err == nil && program != nil {
				program.Send(configReloadedMsg{cfg: newCfg})
			}
		})
		if err == nil {
			defer watcher.Close()
		}
	}

	program = tea.NewProgram(newPickerModel(cfg))
	_, err = program.Run()
	return err
}
