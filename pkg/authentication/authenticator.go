package authentication

import (
	"fmt"

	golog "github.com/fclairamb/go-log"

	"github.com/frostneek/FrostChat/pkg/logging"
	"github.com/frostneek/FrostChat/pkg/users"
)

// AccountStore is the part of users.Store the authenticator needs
type AccountStore interface {
	FindByUsername(name string) (users.Account, bool)
	SetPassword(name, hash string) error
}

// Authenticator checks credentials against the account store and upgrades
// legacy password storage on successful login
type Authenticator struct {
	store    AccountStore
	verifier *MultiHashVerifier
	logger   golog.Logger
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(store AccountStore, verifier *MultiHashVerifier, logger golog.Logger) (*Authenticator, error) {
	if store == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if verifier == nil {
		verifier = NewMultiHashVerifier(nil, true)
	}

	return &Authenticator{
		store:    store,
		verifier: verifier,
		logger:   logging.Or(logger),
	}, nil
}

// Authenticate returns the account when the password matches. Unknown users
// and wrong passwords both yield ErrInvalidCredentials.
func (a *Authenticator) Authenticate(username, password string) (users.Account, error) {
	acct, ok := a.store.FindByUsername(username)
	if !ok {
		a.logger.Debug("Login for unknown user", "username", username)
		return users.Account{}, ErrInvalidCredentials
	}

	if err := a.verifier.VerifyPassword(password, acct.Password); err != nil {
		a.logger.Debug("Password verification failed", "username", username, "error", err)
		return users.Account{}, ErrInvalidCredentials
	}

	if a.verifier.NeedsRehash(acct.Password) {
		a.upgrade(&acct, password)
	}
	return acct, nil
}

// upgrade replaces a legacy stored password with argon2id. Failure is
// logged only; the login itself already succeeded.
func (a *Authenticator) upgrade(acct *users.Account, password string) {
	hash, err := a.verifier.Hash(password)
	if err != nil {
		a.logger.Warn("Could not rehash legacy password", "username", acct.Username, "error", err)
		return
	}
	if err := a.store.SetPassword(acct.Username, hash); err != nil {
		a.logger.Warn("Could not store rehashed password", "username", acct.Username, "error", err)
		return
	}
	acct.Password = hash
	a.logger.Info("Upgraded legacy password storage", "username", acct.Username)
}

// HashPassword returns the stored form for a new password
func (a *Authenticator) HashPassword(password string) (string, error) {
	return a.verifier.Hash(password)
}
