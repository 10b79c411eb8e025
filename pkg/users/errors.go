package users

import "errors"

var (
	// ErrUserNotFound is returned when an account does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when adding an account whose name is in use
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidUsername is returned for empty or whitespace-bearing names
	ErrInvalidUsername = errors.New("invalid username")

	// ErrNoPriorData means the store started empty because the file was
	// missing or corrupt. It is recoverable.
	ErrNoPriorData = errors.New("no prior user data")

	// ErrStorageRead is returned when the user data file exists but cannot be read
	ErrStorageRead = errors.New("reading user data")

	// ErrStorageWrite is returned when the user data file cannot be written
	ErrStorageWrite = errors.New("writing user data")
)
