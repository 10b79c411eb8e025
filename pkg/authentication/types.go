package authentication

import "errors"

// PasswordVerifier is an interface for password verification algorithms
type PasswordVerifier interface {
	// VerifyPassword checks if a password matches its stored form
	VerifyPassword(password, hashedPassword string) error
}

// PasswordHasher produces the stored form of a new password
type PasswordHasher interface {
	Hash(password string) (string, error)
}

var (
	// ErrInvalidCredentials is returned when authentication fails, whether the
	// account is unknown or the password is wrong
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordMismatch is returned by verifiers when the password is wrong
	ErrPasswordMismatch = errors.New("password mismatch")

	// ErrUnsupportedHash is returned for stored values no verifier accepts
	ErrUnsupportedHash = errors.New("unsupported hash format")

	// ErrEmptyPassword is returned when hashing an empty password
	ErrEmptyPassword = errors.New("password must not be empty")
)
