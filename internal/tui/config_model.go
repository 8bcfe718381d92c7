package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/finking/internal/config"
	"github.com/diogo/finking/internal/render"
)

// feedbackClearMsg is sent to clear feedback messages
type feedbackClearMsg struct{}

// configItem is one row of the settings menu
type configItem struct {
	label string
	value func(config.Config) string
	// apply changes the setting and returns the feedback text.
	apply func(*config.Config) string
}

var markdownStyles = []string{render.StyleDark, render.StyleLight, render.StyleAuto, render.StyleNoTTY}

var configItems = []configItem{
	{
		label: "Verbose Logging",
		value: func(c config.Config) string { return onOff(c.Verbose) },
		apply: func(c *config.Config) string {
			c.Verbose = !c.Verbose
			return "Verbose logging " + enabledDisabled(c.Verbose)
		},
	},
	{
		label: "Copy to Clipboard",
		value: func(c config.Config) string { return onOff(c.CopyToClipboard) },
		apply: func(c *config.Config) string {
			c.CopyToClipboard = !c.CopyToClipboard
			return "Copy to clipboard " + enabledDisabled(c.CopyToClipboard)
		},
	},
	{
		label: "Max Retries",
		value: func(c config.Config) string { return fmt.Sprintf("%d", c.MaxRetries) },
		apply: func(c *config.Config) string {
			c.MaxRetries = (c.MaxRetries + 1) % 6
			return fmt.Sprintf("Warm-up retries set to %d", c.MaxRetries)
		},
	},
	{
		label: "Markdown Theme",
		value: func(c config.Config) string { return c.Markdown.Style },
		apply: func(c *config.Config) string {
			c.Markdown.Style = nextStyle(c.Markdown.Style)
			return "Markdown theme set to " + c.Markdown.Style
		},
	},
	{
		label: "Emoji",
		value: func(c config.Config) string { return onOff(c.Markdown.EnableEmoji) },
		apply: func(c *config.Config) string {
			c.Markdown.EnableEmoji = !c.Markdown.EnableEmoji
			return "Emoji " + enabledDisabled(c.Markdown.EnableEmoji)
		},
	},
}

// ConfigModel represents the config TUI state
type ConfigModel struct {
	config    config.Config
	configDir string
	cursor    int

	// save persists the configuration; replaced in tests.
	save func(config.Config) error

	feedback        string
	feedbackTimeout time.Duration

	width int
	ready bool
}

// NewConfigModel creates a settings menu for cfg
func NewConfigModel(cfg config.Config) ConfigModel {
	configDir, _ := config.GetConfigDir()
	return ConfigModel{
		config:          cfg,
		configDir:       configDir,
		save:            config.SaveConfig,
		feedbackTimeout: 2 * time.Second,
	}
}

// Init initializes the model
func (m ConfigModel) Init() tea.Cmd {
	return nil
}

func clearFeedback(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return feedbackClearMsg{}
	})
}

// exitIndex is the cursor position of the Exit row
func exitIndex() int {
	return len(configItems)
}

// Update handles messages and updates the model
func (m ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.ready = true

	case feedbackClearMsg:
		m.feedback = ""

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit

		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				m.cursor = exitIndex()
			}

		case "down", "j":
			m.cursor++
			if m.cursor > exitIndex() {
				m.cursor = 0
			}

		case "enter", " ":
			if m.cursor == exitIndex() {
				return m, tea.Quit
			}
			feedback := configItems[m.cursor].apply(&m.config)
			if err := m.save(m.config); err != nil {
				m.feedback = fmt.Sprintf("Error: %v", err)
			} else {
				m.feedback = feedback
			}
			return m, clearFeedback(m.feedbackTimeout)
		}
	}

	return m, nil
}

// View renders the settings menu
func (m ConfigModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string
	sections = append(sections, configHeaderStyle.Width(contentWidth).Render(titleStyle.Render("$ Configuration")))

	paths := lipgloss.JoinVertical(lipgloss.Left,
		configSectionTitleStyle.Render("Paths"),
		fmt.Sprintf("   Config:   %s", configPathStyle.Render(filepath.Join(m.configDir, "config.json"))),
		fmt.Sprintf("   Endpoint: %s", configPathStyle.Render(m.config.Endpoint)),
	)
	sections = append(sections, configPanelStyle.Width(contentWidth).Render(paths))

	rows := []string{configSectionTitleStyle.Render("Settings"), ""}
	for i, item := range configItems {
		rows = append(rows, m.renderRow(i, item.label, item.value(m.config)))
	}
	rows = append(rows, "", m.renderRow(exitIndex(), "Exit", ""))
	sections = append(sections, configPanelStyle.Width(contentWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))

	if m.feedback != "" {
		sections = append(sections, configFeedbackStyle.Render("✓ "+m.feedback))
	}

	shortcuts := []string{
		statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Navigate"),
		statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Change"),
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Quit"),
	}
	sections = append(sections, statusBarStyle.Render(strings.Join(shortcuts, "  │  ")))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ConfigModel) renderRow(index int, label, value string) string {
	cursor := "  "
	style := configMenuItemStyle
	if m.cursor == index {
		cursor = configCursorStyle.Render("▸ ")
		style = configMenuSelectedStyle
	}
	if value == "" {
		return cursor + style.Render(label)
	}

	pad := 20 - len(label)
	if pad < 1 {
		pad = 1
	}

	rendered := configValueStyle.Render(value)
	switch value {
	case "on":
		rendered = configEnabledStyle.Render("● on")
	case "off":
		rendered = configDisabledStyle.Render("○ off")
	}
	return cursor + style.Render(label) + strings.Repeat(" ", pad) + rendered
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func enabledDisabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func nextStyle(current string) string {
	for i, s := range markdownStyles {
		if s == current {
			return markdownStyles[(i+1)%len(markdownStyles)]
		}
	}
	return markdownStyles[0]
}

// RunConfig starts the settings menu
func RunConfig(cfg config.Config) error {
	p := tea.NewProgram(NewConfigModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
