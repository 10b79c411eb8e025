package session

import (
	"errors"
	"fmt"

	golog "github.com/fclairamb/go-log"

	"github.com/frostneek/FrostChat/pkg/authentication"
	"github.com/frostneek/FrostChat/pkg/authorization"
	"github.com/frostneek/FrostChat/pkg/logging"
	"github.com/frostneek/FrostChat/pkg/transport"
	"github.com/frostneek/FrostChat/pkg/users"
)

// State is the authentication state of the process
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

var (
	// ErrAuthFailed is returned by Login for an unknown user or wrong password
	ErrAuthFailed = errors.New("invalid username or password")
	// ErrUsernameTaken is returned by Signup when the name is in use
	ErrUsernameTaken = users.ErrUsernameTaken
	// ErrNotLoggedIn is returned when an operation needs an identity
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrAlreadyLoggedIn is returned by Login and Signup while authenticated
	ErrAlreadyLoggedIn = errors.New("already logged in")
	// ErrAccountGone means the logged in account was deleted since login
	ErrAccountGone = errors.New("account no longer exists")
)

// Session tracks the one identity this process represents. Only the
// username is held; the account is re-resolved on every Current call.
type Session struct {
	store   *users.Store
	auth    *authentication.Authenticator
	channel transport.Channel
	logger  golog.Logger

	username string
}

// New creates an anonymous session
func New(store *users.Store, auth *authentication.Authenticator, channel transport.Channel, logger golog.Logger) *Session {
	return &Session{
		store:   store,
		auth:    auth,
		channel: channel,
		logger:  logging.Or(logger),
	}
}

// State returns Anonymous or Authenticated
func (s *Session) State() State {
	if s.username == "" {
		return Anonymous
	}
	return Authenticated
}

// LoggedIn reports whether an identity is set
func (s *Session) LoggedIn() bool {
	return s.State() == Authenticated
}

// Username returns the current identity, empty when anonymous
func (s *Session) Username() string {
	return s.username
}

// Current resolves the logged in account from the store
func (s *Session) Current() (users.Account, error) {
	if !s.LoggedIn() {
		return users.Account{}, ErrNotLoggedIn
	}
	acct, ok := s.store.FindByUsername(s.username)
	if !ok {
		return users.Account{}, ErrAccountGone
	}
	return acct, nil
}

// Login authenticates and announces the user
func (s *Session) Login(username, password string) error {
	if s.LoggedIn() {
		return ErrAlreadyLoggedIn
	}

	acct, err := s.auth.Authenticate(username, password)
	if err != nil {
		logging.Access.LogAuth("login", username, "failed")
		return ErrAuthFailed
	}

	s.username = acct.Username
	logging.Access.LogAuth("login", username, "ok")
	s.announce(transport.EventJoin, acct.Public(), "joined")
	return nil
}

// Signup creates a User account, persists it and logs in
func (s *Session) Signup(username, password string) error {
	if s.LoggedIn() {
		return ErrAlreadyLoggedIn
	}
	if s.store.Exists(username) {
		logging.Access.LogAuth("signup", username, "taken")
		return ErrUsernameTaken
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	acct := users.Account{Username: username, Password: hash, Role: authorization.Default}
	if err := s.store.Add(acct); err != nil {
		logging.Access.LogAuth("signup", username, "failed", "error", err)
		return err
	}

	s.username = username
	logging.Access.LogAuth("signup", username, "ok")
	s.announce(transport.EventJoin, acct.Public(), "joined")
	return nil
}

// Logout announces the departure and clears the identity
func (s *Session) Logout() error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}

	who := users.Public{Username: s.username, Role: authorization.Default}
	if acct, err := s.Current(); err == nil {
		who = acct.Public()
	}
	s.username = ""

	logging.Access.LogAuth("logout", who.Username, "ok")
	s.announce(transport.EventLeave, who, "left")
	return nil
}

// announce emits a join or leave notice. A failed emit is logged only;
// the local state change already happened.
func (s *Session) announce(event string, who users.Public, verb string) {
	notice := transport.Notice{
		Username: who.Username,
		Role:     string(who.Role),
		Text:     fmt.Sprintf("[%s] %s has %s the chat", who.Role, who.Username, verb),
	}
	if err := s.channel.Emit(event, notice); err != nil {
		s.logger.Warn("Failed to announce session change", "event", event, "username", who.Username, "error", err)
	}
}
