package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		name string
		args []string
	}{
		{"hello there", false, "", nil},
		{" /kick bob", false, "", nil},
		{"/help", true, "help", []string{}},
		{"/KICK bob", true, "kick", []string{"bob"}},
		{"/w  bob   hi   there", true, "w", []string{"bob", "hi", "there"}},
		{"/newacc Bob pw Trial", true, "newacc", []string{"Bob", "pw", "Trial"}},
		{"/", true, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, ok := Parse(tt.line)
			assert.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.name, cmd.Name)
			assert.Equal(t, tt.args, cmd.Args)
			assert.Equal(t, tt.line, cmd.Raw)
		})
	}
}

func TestCommandArgs(t *testing.T) {
	cmd, _ := Parse("/report bob  keeps   spamming")
	assert.Equal(t, "bob", cmd.Arg(0))
	assert.Equal(t, "", cmd.Arg(5))
	assert.Equal(t, "keeps spamming", cmd.Rest(1))
	assert.Equal(t, "", cmd.Rest(3))
}
