package users

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	golog "github.com/fclairamb/go-log"

	"github.com/frostneek/FrostChat/pkg/authorization"
	"github.com/frostneek/FrostChat/pkg/logging"
)

// Store is the in-memory account set, written through to its Source on
// every mutation. Usernames are unique.
type Store struct {
	source Source
	logger golog.Logger

	mu       sync.RWMutex
	accounts []Account
	readOnly bool // the source could not be read; saving would overwrite it
}

// NewStore creates an empty Store backed by source. Call Load to read the
// persisted accounts.
func NewStore(source Source, logger golog.Logger) *Store {
	return &Store{
		source: source,
		logger: logging.Or(logger),
	}
}

// Load replaces the in-memory set with the persisted one. Both
// ErrNoPriorData and ErrStorageRead are logged and returned but leave the
// store usable and empty. After ErrStorageRead every mutation fails with
// ErrStorageWrite until a Reload succeeds, so the unreadable file is never
// replaced.
func (s *Store) Load() error {
	accounts, err := s.source.LoadAccounts()
	if err != nil {
		switch {
		case errors.Is(err, ErrNoPriorData):
			s.logger.Warn("Starting with an empty user list", "error", err)
			s.replace(nil, false)
		case errors.Is(err, ErrStorageRead):
			s.logger.Error("User data is unreadable, starting empty and read-only", "error", err)
			s.replace(nil, true)
		}
		return err
	}
	s.replace(dedupe(accounts, s.logger), false)
	s.logger.Debug("Loaded user data", "accounts", len(accounts))
	return nil
}

// Reload re-reads the source after an external change. Unlike Load, a
// corrupt or missing file keeps the current set.
func (s *Store) Reload() error {
	accounts, err := s.source.LoadAccounts()
	if err != nil {
		s.logger.Warn("Ignoring unreadable user data on reload", "error", err)
		return err
	}
	s.replace(dedupe(accounts, s.logger), false)
	return nil
}

// ReadOnly reports whether mutations are refused because the source could
// not be read
func (s *Store) ReadOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readOnly
}

func (s *Store) replace(accounts []Account, readOnly bool) {
	s.mu.Lock()
	s.accounts = accounts
	s.readOnly = readOnly
	s.mu.Unlock()
}

// dedupe keeps the first record per username, as lookups always did
func dedupe(accounts []Account, logger golog.Logger) []Account {
	seen := make(map[string]bool, len(accounts))
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		if seen[a.Username] {
			logger.Warn("Dropping duplicate account", "username", a.Username)
			continue
		}
		seen[a.Username] = true
		out = append(out, a)
	}
	return out
}

// FindByUsername returns a copy of the named account
func (s *Store) FindByUsername(name string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(name); i >= 0 {
		return s.accounts[i], true
	}
	return Account{}, false
}

// Exists reports whether name is a known account
func (s *Store) Exists(name string) bool {
	_, ok := s.FindByUsername(name)
	return ok
}

// Accounts returns a copy of every account in storage order
func (s *Store) Accounts() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Account(nil), s.accounts...)
}

// PublicList returns every account without passwords
func (s *Store) PublicList() []Public {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Public, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = a.Public()
	}
	return out
}

// Add inserts a new account and persists the set
func (s *Store) Add(account Account) error {
	if err := ValidateUsername(account.Username); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(account.Username) >= 0 {
		return ErrUsernameTaken
	}
	next := append(append([]Account(nil), s.accounts...), account)
	return s.commitLocked(next)
}

// Remove deletes the named account and persists the set
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(name)
	if i < 0 {
		return ErrUserNotFound
	}
	next := make([]Account, 0, len(s.accounts)-1)
	next = append(next, s.accounts[:i]...)
	next = append(next, s.accounts[i+1:]...)
	return s.commitLocked(next)
}

// SetRole changes the role of the named account, returning the old role
func (s *Store) SetRole(name string, role authorization.Role) (authorization.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(name)
	if i < 0 {
		return "", ErrUserNotFound
	}
	old := s.accounts[i].Role
	next := append([]Account(nil), s.accounts...)
	next[i].Role = role
	if err := s.commitLocked(next); err != nil {
		return "", err
	}
	return old, nil
}

// SetPassword replaces the stored password hash of the named account
func (s *Store) SetPassword(name, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(name)
	if i < 0 {
		return ErrUserNotFound
	}
	next := append([]Account(nil), s.accounts...)
	next[i].Password = hash
	return s.commitLocked(next)
}

// commitLocked persists next and only then makes it the current set, so a
// failed write leaves memory and disk in agreement.
func (s *Store) commitLocked(next []Account) error {
	if s.readOnly {
		return fmt.Errorf("%w: user data could not be read at startup, not overwriting it", ErrStorageWrite)
	}
	if err := s.source.SaveAccounts(next); err != nil {
		s.logger.Error("Failed to save user data", "error", err)
		if errors.Is(err, ErrStorageWrite) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	s.accounts = next
	return nil
}

func (s *Store) indexLocked(name string) int {
	for i, a := range s.accounts {
		if a.Username == name {
			return i
		}
	}
	return -1
}

// ValidateUsername rejects names the command parser could never address
func ValidateUsername(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return ErrInvalidUsername
	}
	return nil
}
