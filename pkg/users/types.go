package users

import "github.com/frostneek/FrostChat/pkg/authorization"

// Account represents a chat account as persisted in the user data file
type Account struct {
	Username string             `json:"username"`
	Password string             `json:"password"` // PHC hash, or a legacy value from older clients
	Role     authorization.Role `json:"role"`
}

// Public is the password-free view of an account shared with other clients
type Public struct {
	Username string             `json:"username"`
	Role     authorization.Role `json:"role"`
}

// Public strips the password
func (a Account) Public() Public {
	return Public{Username: a.Username, Role: a.Role}
}

// Source represents durable storage for the full account set
type Source interface {
	// LoadAccounts reads every persisted account. Missing or unreadable
	// data is reported as ErrNoPriorData.
	LoadAccounts() ([]Account, error)
	// SaveAccounts replaces the persisted set with accounts
	SaveAccounts(accounts []Account) error
}
