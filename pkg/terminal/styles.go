package terminal

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles colours console output
type Styles struct {
	Prompt  lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
	Role    lipgloss.Style
	Name    lipgloss.Style
	Text    lipgloss.Style
	Title   lipgloss.Style
	Item    lipgloss.Style
	Whisper lipgloss.Style
}

// NewStyles builds the palette for w. Colours are dropped when w is not a
// terminal.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Prompt:  r.NewStyle().Foreground(lipgloss.Color("12")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("11")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("9")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Role:    r.NewStyle().Foreground(lipgloss.Color("12")),
		Name:    r.NewStyle().Foreground(lipgloss.Color("15")),
		Text:    r.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("7")),
		Title:   r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Item:    r.NewStyle().Foreground(lipgloss.Color("11")),
		Whisper: r.NewStyle().Foreground(lipgloss.Color("13")).Italic(true),
	}
}
