package moderation

import (
	"errors"

	"github.com/frostneek/FrostChat/pkg/users"
)

var (
	// ErrPermissionDenied is returned when the actor's role is too low
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTargetNotFound is returned when the target account does not exist
	ErrTargetNotFound = errors.New("target user not found")

	// ErrSelfTarget is returned when an actor targets their own account
	ErrSelfTarget = errors.New("cannot target yourself")

	// ErrNotMuted is returned by Unmute for a user without a mute entry
	ErrNotMuted = errors.New("user is not muted")

	// ErrInvalidRole is returned for role names outside the hierarchy
	ErrInvalidRole = errors.New("invalid role")

	// ErrNotConnected is returned when the target has no active connection
	ErrNotConnected = errors.New("target is not connected")

	// ErrInvalidDuration is returned for mute durations that are not positive
	ErrInvalidDuration = errors.New("duration must be a positive number of seconds")

	// ErrEmptyMessage is returned for blank chat, whisper or report text
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMuted is returned by SendChat while the local user is muted
	ErrMuted = errors.New("you are muted")

	// ErrUsernameTaken is returned by CreateAccount for an existing name
	ErrUsernameTaken = users.ErrUsernameTaken
)
