package authentication

import (
	"errors"
	"strings"

	"github.com/digitive/crypt"
)

// cryptAlphabet is the character set of traditional DES crypt output
const cryptAlphabet = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// UnixCrypt verifies traditional 13-character Unix crypt hashes, the form
// older FrostChat tooling exported accounts in.
type UnixCrypt struct{}

// NewUnixCrypt creates a new Unix crypt verifier
func NewUnixCrypt() *UnixCrypt {
	return &UnixCrypt{}
}

// Hash hashes password using its first two characters as the salt
func (h *UnixCrypt) Hash(password string) (string, error) {
	if len(password) < 2 {
		return "", errors.New("password too short for crypt salt")
	}
	return crypt.Crypt(password, password[:2])
}

// VerifyPassword checks if a password matches its hashed version
func (h *UnixCrypt) VerifyPassword(password, hashedPassword string) error {
	if !looksLikeUnixCrypt(hashedPassword) {
		return errors.New("invalid crypt hash")
	}

	computed, err := crypt.Crypt(password, hashedPassword[:2])
	if err != nil {
		return err
	}
	if computed != hashedPassword {
		return ErrPasswordMismatch
	}
	return nil
}

func looksLikeUnixCrypt(s string) bool {
	if len(s) != 13 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune(cryptAlphabet, c) {
			return false
		}
	}
	return true
}
