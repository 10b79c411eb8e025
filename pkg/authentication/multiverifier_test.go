package authentication

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/argon2"
)

func TestMultiHashVerifier_Routes(t *testing.T) {
	unixHash := "tek4edTZE898g" // password: "testpassword123" with salt "te"

	salt := []byte("0123456789abcdef")
	hash := argon2.IDKey([]byte("p@ssw0rd"), salt, 2, 64*1024, 1, 32)
	phc := "$argon2id$v=19$m=65536,t=2,p=1$" + base64.RawStdEncoding.EncodeToString(salt) + "$" + base64.RawStdEncoding.EncodeToString(hash)
	phcBadSalt := "$argon2id$v=19$m=65536,t=2,p=1$**bad**$" + base64.RawStdEncoding.EncodeToString(hash)

	tests := []struct {
		name           string
		allowPlaintext bool
		password       string
		stored         string
		wantErr        bool
	}{
		{"unixcrypt ok", false, "testpassword123", unixHash, false},
		{"unixcrypt wrong password", false, "wrong", unixHash, true},
		{"argon2 ok", false, "p@ssw0rd", phc, false},
		{"argon2 wrong password", true, "nope", phc, true},
		{"argon2 bad salt", true, "p@ssw0rd", phcBadSalt, true},
		{"plaintext disabled", false, "pw1", "pw1", true},
		{"plaintext ok", true, "pw1", "pw1", false},
		{"plaintext wrong", true, "pw2", "pw1", true},
		{"thirteen char plaintext", true, "abcdefghijklm", "abcdefghijklm", false},
		{"argon2 string is never plaintext", true, phc, phc, true},
		{"empty stored value", true, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mv := NewMultiHashVerifier(nil, tt.allowPlaintext)
			err := mv.VerifyPassword(tt.password, tt.stored)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMultiHashVerifier_NeedsRehash(t *testing.T) {
	mv := NewMultiHashVerifier(cheapArgon(), true)

	fresh, err := mv.Hash("pw")
	assert.NoError(t, err)
	assert.False(t, mv.NeedsRehash(fresh))
	assert.True(t, mv.NeedsRehash("tek4edTZE898g"))
	assert.True(t, mv.NeedsRehash("pw"))
}
