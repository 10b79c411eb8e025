package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/frostneek/FrostChat/pkg/authentication"
	"github.com/frostneek/FrostChat/pkg/authorization"
	"github.com/frostneek/FrostChat/pkg/moderation"
	"github.com/frostneek/FrostChat/pkg/session"
	"github.com/frostneek/FrostChat/pkg/transport"
	"github.com/frostneek/FrostChat/pkg/users"
)

// ErrPermissionDenied is returned when the router's role gate refuses a command
var ErrPermissionDenied = moderation.ErrPermissionDenied

// UnknownCommandError is returned for a command name not in the table
type UnknownCommandError struct {
	Raw string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Raw)
}

// UsageError is returned when a command is missing arguments
type UsageError struct {
	Command string
	Usage   string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s", e.Usage)
}

// ActionError ties a failed action to its command and target user
type ActionError struct {
	Command string
	Target  string
	Err     error
}

func (e *ActionError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Command, e.Target, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Describe turns an error from the router, session or engine into the
// message shown to the user
func Describe(err error) string {
	var unknown *UnknownCommandError
	if errors.As(err, &unknown) {
		return fmt.Sprintf("%s is not defined. Type /help for a list of commands.", unknown.Raw)
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return "Usage: " + usage.Usage
	}

	var action *ActionError
	verb, target := "target", "User"
	if errors.As(err, &action) {
		verb = action.Command
		if action.Target != "" {
			target = "User " + action.Target
		}
	}

	switch {
	case errors.Is(err, moderation.ErrPermissionDenied):
		return "You don't have permission to use this command."
	case errors.Is(err, moderation.ErrTargetNotFound):
		return target + " not found."
	case errors.Is(err, moderation.ErrSelfTarget):
		return fmt.Sprintf("You cannot %s yourself.", verb)
	case errors.Is(err, moderation.ErrNotMuted):
		return target + " is not currently muted."
	case errors.Is(err, moderation.ErrNotConnected):
		return target + " is not connected."
	case errors.Is(err, moderation.ErrInvalidRole):
		return fmt.Sprintf("Invalid role. Available roles: %s.", strings.Join(authorization.Names(), ", "))
	case errors.Is(err, moderation.ErrInvalidDuration):
		return "Duration must be a positive number of seconds."
	case errors.Is(err, moderation.ErrEmptyMessage):
		return "Message is empty."
	case errors.Is(err, moderation.ErrMuted):
		return "You are muted."
	case errors.Is(err, users.ErrUsernameTaken):
		return "Username already exists. Choose a different username."
	case errors.Is(err, users.ErrInvalidUsername):
		return "Usernames cannot be empty or contain spaces."
	case errors.Is(err, users.ErrStorageWrite):
		return "Error writing to user data file."
	case errors.Is(err, authentication.ErrEmptyPassword):
		return "Password must not be empty."
	case errors.Is(err, session.ErrAuthFailed):
		return "Invalid username or password."
	case errors.Is(err, session.ErrNotLoggedIn):
		return "You need to log in first."
	case errors.Is(err, session.ErrAccountGone):
		return "Your account no longer exists."
	case errors.Is(err, transport.ErrClosed):
		return "Not connected to the server."
	}
	return err.Error()
}
