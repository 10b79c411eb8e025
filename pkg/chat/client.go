package chat

import (
	"context"
	"errors"
	"io"

	golog "github.com/fclairamb/go-log"
	"golang.org/x/time/rate"

	"github.com/frostneek/FrostChat/pkg/commands"
	"github.com/frostneek/FrostChat/pkg/logging"
	"github.com/frostneek/FrostChat/pkg/moderation"
	"github.com/frostneek/FrostChat/pkg/session"
	"github.com/frostneek/FrostChat/pkg/terminal"
	"github.com/frostneek/FrostChat/pkg/transport"
	"github.com/frostneek/FrostChat/pkg/users"
)

// ErrDisconnected is returned by Run when OnDisconnect asked it to stop
var ErrDisconnected = errors.New("disconnected from server")

// Prompter reads answers from the user, one prompt at a time
type Prompter interface {
	Prompt(prompt string) (string, error)
	PromptPassword(prompt string) (string, error)
}

// Display shows everything the client prints
type Display interface {
	commands.Output
	Error(msg string)
	Whisper(from, message string)
	Clear()
}

// Options wires a Client. Session, Router, Engine, Store, Events, Prompter
// and Display are required.
type Options struct {
	Session  *session.Session
	Router   *commands.Router
	Engine   *moderation.Engine
	Store    *users.Store
	Events   <-chan transport.Event
	Timers   *TimerQueue     // nil creates one; pass the engine's scheduler here
	Changes  <-chan struct{} // user data file changed; may be nil
	Prompter Prompter
	Display  Display
	Limiter  *rate.Limiter // chat flood control; nil disables it

	// OnDisconnect decides what happens when the connection drops. Returning
	// true stops Run with ErrDisconnected. Nil means stop.
	OnDisconnect func(err error) bool

	Logger golog.Logger
}

// Client runs the login flow and chat on a single goroutine. Lines typed by
// the user, transport events, timers and file changes are all handled in
// turn by Run.
type Client struct {
	session  *session.Session
	router   *commands.Router
	engine   *moderation.Engine
	store    *users.Store
	events   <-chan transport.Event
	timers   *TimerQueue
	changes  <-chan struct{}
	prompter Prompter
	display  Display
	limiter  *rate.Limiter
	onDrop   func(error) bool
	logger   golog.Logger

	state    state
	pending  bool
	username string // answer to the username prompt, until the password arrives
	lastSent string // id of the last chat message this client broadcast

	requests chan promptRequest
	lines    chan lineEvent
}

type promptRequest struct {
	prompt string
	secret bool
}

type lineEvent struct {
	text string
	err  error
}

// New creates a Client
func New(opts Options) *Client {
	c := &Client{
		session:  opts.Session,
		router:   opts.Router,
		engine:   opts.Engine,
		store:    opts.Store,
		events:   opts.Events,
		timers:   opts.Timers,
		changes:  opts.Changes,
		prompter: opts.Prompter,
		display:  opts.Display,
		limiter:  opts.Limiter,
		onDrop:   opts.OnDisconnect,
		logger:   logging.Or(opts.Logger).With("component", "chat"),
		state:    waitingConnect,
		requests: make(chan promptRequest, 1),
		lines:    make(chan lineEvent),
	}
	if c.timers == nil {
		c.timers = NewTimerQueue()
	}
	c.router.OnSent(func(m transport.ChatMessage) { c.lastSent = m.ID })
	return c
}

// Run drives the client until input ends (nil), ctx is cancelled
// (ctx.Err()), or the connection drops and OnDisconnect says stop
// (ErrDisconnected). A prompt still blocked on the terminal when Run
// returns is abandoned and its answer discarded.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.timers.Stop()

	go c.readLoop(ctx)

	c.display.Info("Connecting to the server...")
	for {
		var err error
		var stop bool

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.lines:
			c.pending = false
			stop, err = c.handleLine(ev)
		case ev := <-c.events:
			stop, err = c.handleEvent(ev)
		case fn := <-c.timers.C():
			fn()
		case <-c.changes:
			c.reloadUsers()
		}

		if stop {
			return err
		}
	}
}

// readLoop answers prompt requests from the loop one at a time
func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-c.requests:
			var ev lineEvent
			if req.secret {
				ev.text, ev.err = c.prompter.PromptPassword(req.prompt)
			} else {
				ev.text, ev.err = c.prompter.Prompt(req.prompt)
			}
			select {
			case c.lines <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Client) ask(prompt string, secret bool) {
	if c.pending {
		c.logger.Warn("Prompt already outstanding", "prompt", prompt)
		return
	}
	c.pending = true
	c.requests <- promptRequest{prompt: prompt, secret: secret}
}

func (c *Client) handleLine(ev lineEvent) (bool, error) {
	if ev.err != nil {
		if errors.Is(ev.err, io.EOF) || errors.Is(ev.err, terminal.ErrAborted) {
			c.logger.Info("Input closed", "state", c.state)
			return true, nil
		}
		c.logger.Error("Reading input failed", "error", ev.err)
		return true, ev.err
	}
	c.step(ev.text)
	return false, nil
}

func (c *Client) reloadUsers() {
	if err := c.store.Reload(); err != nil {
		c.logger.Warn("User data changed but could not be reloaded", "error", err)
		return
	}
	c.logger.Info("Reloaded user data after an external change")
}
