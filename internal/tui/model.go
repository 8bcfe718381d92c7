package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/finking/internal/api"
	"github.com/diogo/finking/internal/models"
	"github.com/diogo/finking/internal/render"
	"github.com/diogo/finking/internal/widget"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// controllerChangedMsg tells the model to re-read the controller state.
	controllerChangedMsg struct{}
	// deliveredMsg is returned by the delivery command once Send returns.
	deliveredMsg struct {
		outcome models.Outcome
		err     error
	}
	retryMsg struct {
		attempt int
		delay   time.Duration
	}
	noticeClearMsg struct{}
)

// Options configures the chat TUI
type Options struct {
	Endpoint string
	Markdown render.Options
	// CopyToClipboard copies every reply as soon as it arrives.
	CopyToClipboard bool
	// MaxRetries is shown in the retry notice.
	MaxRetries int
}

// Model represents the TUI state
type Model struct {
	controller *widget.Controller
	opts       Options

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State mirrored from the controller
	entries      []widget.Entry
	working      bool
	inputEnabled bool

	ready          bool
	notice         string
	animationFrame int

	// copy writes to the system clipboard; replaced in tests.
	copy func(string) error

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a chat model driven by controller
func NewChatModel(controller *widget.Controller, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about stocks, crypto, markets..."
	ta.CharLimit = models.MaxMessageLength
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	m := Model{
		controller: controller,
		opts:       opts,
		textarea:   ta,
		spinner:    s,
		copy:       clipboard.WriteAll,
	}
	m.sync()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

func clearNotice(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return noticeClearMsg{}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()
		m.viewport.GotoBottom()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "ctrl+y":
			if reply := m.lastReply(); reply != "" {
				if err := m.copy(reply); err != nil {
					m.notice = "Copy failed: " + err.Error()
				} else {
					m.notice = "Last reply copied to clipboard"
				}
				return m, clearNotice(2 * time.Second)
			}
			return m, nil

		case "enter":
			input := strings.TrimSpace(m.textarea.Value())
			if !m.inputEnabled || input == "" {
				return m, nil
			}
			if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
				return m, tea.Quit
			}

			m.textarea.Reset()
			m.inputEnabled = false
			m.working = true
			m.notice = ""
			m.animationFrame = 0

			return m, tea.Batch(
				m.deliver(input),
				m.spinner.Tick,
				animationTick(),
			)
		}

	case controllerChangedMsg:
		m.sync()

	case deliveredMsg:
		m.sync()
		m.notice = ""
		if msg.err == nil && m.opts.CopyToClipboard && msg.outcome.Kind == models.OutcomeReply {
			_ = m.copy(msg.outcome.Text)
		}

	case retryMsg:
		m.notice = fmt.Sprintf("%s Service starting up, retrying in %s (%d/%d)",
			models.MarkerWarmingUp, msg.delay, msg.attempt, m.opts.MaxRetries)

	case noticeClearMsg:
		if !m.working {
			m.notice = ""
		}

	case spinner.TickMsg:
		if m.working {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.working {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only keys reach the textarea so escape sequences never leak into it.
	if m.inputEnabled {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// deliver runs the controller send off the update loop
func (m Model) deliver(text string) tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		out, err := controller.Send(context.Background(), text)
		return deliveredMsg{outcome: out, err: err}
	}
}

// sync copies the controller state into the model
func (m *Model) sync() {
	m.entries = m.controller.Entries()
	m.working = m.controller.Working()
	m.inputEnabled = m.controller.InputEnabled()
	if m.inputEnabled {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
	if m.ready {
		m.updateViewport()
		m.viewport.GotoBottom()
	}
}

func (m Model) lastReply() string {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Message.Role == models.RoleAssistant {
			return m.entries[i].Message.Content
		}
	}
	return ""
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	headerContent := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("$ FinKing AI"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.Endpoint),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View()))

	var inputContent string
	if m.working {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	if m.notice != "" {
		sections = append(sections, noticeStyle.Render("  "+m.notice))
	}

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinIdx := frame % len(chars)
	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" FinKing is thinking ")
	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, m.spinner.View())
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+Y", "Copy reply"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	for i, entry := range m.entries {
		if i > 0 {
			content.WriteString("\n")
		}

		if entry.Message.Role == models.RoleUser {
			label := userLabelStyle.Render("● You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(entry.Message.Content)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("$ FinKing")

			rendered, err := render.Markdown(entry.Message.Content, m.opts.Markdown.WithWidth(bubbleWidth-4))
			if err != nil {
				rendered = entry.Message.Content
			}
			rendered = strings.TrimRight(rendered, "\n")

			content.WriteString(label + "\n" + assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// programView forwards controller notifications to a running program
type programView struct {
	program *tea.Program
}

func (v *programView) notify() {
	if v.program != nil {
		v.program.Send(controllerChangedMsg{})
	}
}

func (v *programView) MessageAppended(widget.Entry) { v.notify() }
func (v *programView) WorkingChanged(bool)          { v.notify() }
func (v *programView) InputChanged(bool)            { v.notify() }
func (v *programView) FocusInput()                  { v.notify() }

// SenderFactory builds the sender for a chat run. onRetry must be called
// before each warm-up retry wait so the TUI can show it.
type SenderFactory func(onRetry api.RetryFunc) (widget.Sender, error)

// RunChat starts the chat TUI
func RunChat(newSender SenderFactory, opts Options) error {
	view := &programView{}

	var program *tea.Program
	sender, err := newSender(func(attempt int, delay time.Duration) {
		if program != nil {
			program.Send(retryMsg{attempt: attempt, delay: delay})
		}
	})
	if err != nil {
		return err
	}

	controller := widget.NewController(sender, widget.WithView(view))
	program = tea.NewProgram(NewChatModel(controller, opts), tea.WithAltScreen())
	view.program = program

	_, err = program.Run()
	return err
}
