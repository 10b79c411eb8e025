package authentication

import (
	"crypto/subtle"
	"errors"
	"strings"
)

// LegacyPlaintext compares against passwords stored verbatim in older
// plaintext users.json files.
type LegacyPlaintext struct{}

// VerifyPassword compares in constant time
func (LegacyPlaintext) VerifyPassword(password, stored string) error {
	if subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

// MultiHashVerifier automatically detects the stored format and delegates
// to the matching verifier
type MultiHashVerifier struct {
	argon2id       *Argon2idVerifier
	unixCrypt      *UnixCrypt
	allowPlaintext bool
}

// NewMultiHashVerifier creates a verifier for argon2id and Unix crypt
// hashes. With allowPlaintext, values in neither format are compared as
// legacy plaintext.
func NewMultiHashVerifier(argon *Argon2idVerifier, allowPlaintext bool) *MultiHashVerifier {
	if argon == nil {
		argon = NewArgon2idVerifier()
	}
	return &MultiHashVerifier{
		argon2id:       argon,
		unixCrypt:      NewUnixCrypt(),
		allowPlaintext: allowPlaintext,
	}
}

// VerifyPassword implements PasswordVerifier
func (v *MultiHashVerifier) VerifyPassword(password, stored string) error {
	if stored == "" {
		return errors.New("empty hash")
	}

	if strings.HasPrefix(stored, "$argon2id$") {
		return v.argon2id.VerifyPassword(password, stored)
	}

	if looksLikeUnixCrypt(stored) {
		err := v.unixCrypt.VerifyPassword(password, stored)
		// A 13-character plaintext password is indistinguishable from crypt
		// output, so give plaintext a chance before failing.
		if err == nil || !v.allowPlaintext {
			return err
		}
	}

	if v.allowPlaintext {
		return LegacyPlaintext{}.VerifyPassword(password, stored)
	}
	return ErrUnsupportedHash
}

// NeedsRehash reports whether stored should be replaced by a fresh argon2id hash
func (v *MultiHashVerifier) NeedsRehash(stored string) bool {
	return !strings.HasPrefix(stored, "$argon2id$")
}

// Hash implements PasswordHasher with argon2id
func (v *MultiHashVerifier) Hash(password string) (string, error) {
	return v.argon2id.Hash(password)
}
