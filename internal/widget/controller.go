// Package widget holds the chat controller shared by the terminal and web
// front-ends. It owns the display log and the input/working state, and
// tells a View what changed.
package widget

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diogo/finking/internal/models"
	"github.com/diogo/finking/internal/render"
)

var (
	// ErrBusy is returned when a message is sent while another is in flight.
	ErrBusy = errors.New("a message is already being delivered")
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// Sender delivers one message; *api.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, text string) models.Outcome
}

// Entry is one message of the display log with its rendered HTML
type Entry struct {
	Message models.Message
	HTML    string
}

// View receives state changes. Calls are made without the controller lock
// held, so a View may read the controller back.
type View interface {
	MessageAppended(entry Entry)
	WorkingChanged(working bool)
	InputChanged(enabled bool)
	FocusInput()
}

// NopView ignores every notification
type NopView struct{}

func (NopView) MessageAppended(Entry) {}
func (NopView) WorkingChanged(bool)   {}
func (NopView) InputChanged(bool)     {}
func (NopView) FocusInput()           {}

// Option configures a Controller
type Option func(*Controller)

// WithView sets the view notified of state changes
func WithView(v View) Option {
	return func(c *Controller) {
		if v != nil {
			c.view = v
		}
	}
}

// WithWelcome sets the greeting placed at the top of the log; empty disables it.
func WithWelcome(text string) Option {
	return func(c *Controller) {
		c.welcome = text
	}
}

// WithLogger sets the controller logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// Controller drives one chat session
type Controller struct {
	sender  Sender
	view    View
	welcome string
	logger  zerolog.Logger

	mu           sync.Mutex
	entries      []Entry
	working      bool
	inputEnabled bool
}

// NewController creates a controller whose log starts with the welcome message
func NewController(sender Sender, opts ...Option) *Controller {
	c := &Controller{
		sender:       sender,
		view:         NopView{},
		welcome:      models.WelcomeText,
		logger:       log.Logger,
		inputEnabled: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.welcome != "" {
		c.entries = append(c.entries, newEntry(models.RoleAssistant, c.welcome))
	}
	return c
}

// Send delivers text and appends the user message and the outcome message to
// the log. Delivery failures are part of the returned outcome; the error is
// only set when nothing was sent.
func (c *Controller) Send(ctx context.Context, text string) (models.Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Outcome{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.working || !c.inputEnabled {
		c.mu.Unlock()
		return models.Outcome{}, ErrBusy
	}
	c.inputEnabled = false
	c.mu.Unlock()
	c.view.InputChanged(false)

	defer func() {
		c.mu.Lock()
		c.working = false
		c.inputEnabled = true
		c.mu.Unlock()
		c.view.InputChanged(true)
		c.view.FocusInput()
	}()

	c.append(models.RoleUser, text)
	c.setWorking(true)

	out := c.sender.Send(ctx, text)

	c.setWorking(false)
	c.append(models.RoleAssistant, DisplayText(out))

	c.logger.Debug().
		Str("outcome", out.Kind.String()).
		Int("attempts", out.Attempts).
		Bool("fallback", out.Fallback).
		Msg("message delivered")

	return out, nil
}

// Entries returns a copy of the display log
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]Entry, len(c.entries))
	copy(entries, c.entries)
	return entries
}

// Working reports whether a delivery is in flight
func (c *Controller) Working() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.working
}

// InputEnabled reports whether a new message can be sent
func (c *Controller) InputEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputEnabled
}

func (c *Controller) append(role models.Role, text string) {
	entry := newEntry(role, text)

	c.mu.Lock()
	c.entries = append(c.entries, entry)
	c.mu.Unlock()

	c.view.MessageAppended(entry)
}

func (c *Controller) setWorking(working bool) {
	c.mu.Lock()
	c.working = working
	c.mu.Unlock()
	c.view.WorkingChanged(working)
}

func newEntry(role models.Role, text string) Entry {
	msg := models.NewMessage(role, text)
	return Entry{Message: msg, HTML: render.Message(role, text)}
}
