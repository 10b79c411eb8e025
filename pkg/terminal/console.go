package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/frostneek/FrostChat/pkg/authorization"
)

// ErrAborted is returned by prompts when the user pressed Ctrl+C
var ErrAborted = errors.New("prompt aborted")

// Options configure a Console
type Options struct {
	In          io.Reader // nil means stdin
	Out         io.Writer // nil means stdout
	HistoryFile string    // empty disables history
}

// Console is the line-based terminal: prompts on input, styled lines on
// output. It uses line editing and history when stdin is a terminal.
type Console struct {
	out         io.Writer
	line        *liner.State
	reader      *bufio.Reader
	historyFile string
	styles      Styles

	mu sync.Mutex
}

// New creates a Console
func New(opts Options) *Console {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	c := &Console{
		out:         out,
		historyFile: opts.HistoryFile,
		styles:      NewStyles(out),
	}

	if opts.In == nil && term.IsTerminal(int(os.Stdin.Fd())) {
		c.line = liner.NewLiner()
		c.line.SetCtrlCAborts(true)
		c.loadHistory()
		return c
	}

	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	c.reader = bufio.NewReader(in)
	return c
}

// Interactive reports whether line editing is active
func (c *Console) Interactive() bool {
	return c.line != nil
}

func (c *Console) loadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

func (c *Console) saveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Prompt reads one line. io.EOF means input ended.
func (c *Console) Prompt(prompt string) (string, error) {
	if c.line != nil {
		input, err := c.line.Prompt(prompt)
		if err != nil {
			return "", c.translate(err)
		}
		if strings.TrimSpace(input) != "" {
			c.line.AppendHistory(input)
		}
		return input, nil
	}
	return c.readLine(prompt)
}

// PromptPassword reads one line without echo when interactive
func (c *Console) PromptPassword(prompt string) (string, error) {
	if c.line != nil {
		input, err := c.line.PasswordPrompt(prompt)
		if err != nil {
			return "", c.translate(err)
		}
		return input, nil
	}
	return c.readLine(prompt)
}

func (c *Console) translate(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) {
		return ErrAborted
	}
	return err
}

func (c *Console) readLine(prompt string) (string, error) {
	c.write(prompt)
	input, err := c.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || input == "") {
		return "", err
	}
	return strings.TrimRight(input, "\r\n"), nil
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, s)
}

func (c *Console) println(s string) {
	c.write(s + "\n")
}

// PromptText renders the chat prompt marker
func (c *Console) PromptText(s string) string {
	return c.styles.Prompt.Render(s)
}

// Info prints a neutral notice
func (c *Console) Info(msg string) {
	c.println(c.styles.Info.Render(msg))
}

// Success prints a confirmation
func (c *Console) Success(msg string) {
	c.println(c.styles.Success.Render(msg))
}

// Warn prints a recoverable problem
func (c *Console) Warn(msg string) {
	c.println(c.styles.Warn.Render(msg))
}

// Error prints a failure
func (c *Console) Error(msg string) {
	c.println(c.styles.Error.Render(msg))
}

// Chat prints one chat line
func (c *Console) Chat(username string, role authorization.Role, text string) {
	prefix := c.styles.Name.Render(username)
	if role != "" && username != "You" {
		prefix = c.styles.Role.Render("["+string(role)+"]") + " " + prefix
	}
	c.println(prefix + " : " + c.styles.Text.Render(text))
}

// Whisper prints a private message
func (c *Console) Whisper(from, message string) {
	c.println(c.styles.Whisper.Render(fmt.Sprintf("%s whispers: %s", from, message)))
}

// List prints a title and one item per line
func (c *Console) List(title string, items []string) {
	var b strings.Builder
	b.WriteString(c.styles.Title.Render(title))
	b.WriteByte('\n')
	for _, item := range items {
		b.WriteString(c.styles.Item.Render(item))
		b.WriteByte('\n')
	}
	c.write(b.String())
}

// Clear wipes the screen
func (c *Console) Clear() {
	c.write("\033[H\033[2J")
}

// Close saves history and restores the terminal
func (c *Console) Close() error {
	if c.line == nil {
		return nil
	}
	c.saveHistory()
	return c.line.Close()
}
