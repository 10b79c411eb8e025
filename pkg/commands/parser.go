package commands

import "strings"

// Marker starts every command line
const Marker = "/"

// Command is one parsed command line
type Command struct {
	Name string   // lowercased, without the marker
	Args []string // whitespace separated
	Raw  string
}

// Parse splits a command line into name and arguments. Lines that do not
// start with the marker are chat and return false.
func Parse(line string) (Command, bool) {
	if !strings.HasPrefix(line, Marker) {
		return Command{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(line, Marker))
	cmd := Command{Raw: line}
	if len(fields) > 0 {
		cmd.Name = strings.ToLower(fields[0])
		cmd.Args = fields[1:]
	}
	return cmd, true
}

// Arg returns argument i or the empty string
func (c Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// Rest joins the arguments from i on with single spaces
func (c Command) Rest(i int) string {
	if i >= len(c.Args) {
		return ""
	}
	return strings.Join(c.Args[i:], " ")
}
