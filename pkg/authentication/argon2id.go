package authentication

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Version = argon2.Version
	saltLength    = 16
	keyLength     = 32
)

// Argon2idVerifier hashes and verifies Argon2id PHC strings:
// $argon2id$v=19$m=65536,t=2,p=1$<salt_b64>$<hash_b64>
type Argon2idVerifier struct {
	memory  uint32
	time    uint32
	threads uint8
}

// NewArgon2idVerifier returns a verifier that hashes with m=64MiB, t=2, p=1
func NewArgon2idVerifier() *Argon2idVerifier {
	return NewArgon2idVerifierWithParams(64*1024, 2, 1)
}

// NewArgon2idVerifierWithParams returns a verifier with explicit cost
// parameters for new hashes. Verification always uses the stored ones.
func NewArgon2idVerifierWithParams(memory, time uint32, threads uint8) *Argon2idVerifier {
	return &Argon2idVerifier{memory: memory, time: time, threads: threads}
}

// Hash returns a salted PHC string for password
func (a *Argon2idVerifier) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, a.time, a.memory, a.threads, keyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version, a.memory, a.time, a.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword verifies a password against a PHC-formatted argon2id hash
func (a *Argon2idVerifier) VerifyPassword(password, hashedPassword string) error {
	_, memory, time, threads, salt, expected, err := parseArgon2idHash(hashedPassword)
	if err != nil {
		return err
	}

	derived := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(expected)))
	if subtle.ConstantTimeCompare(derived, expected) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

// parseArgon2idHash splits a PHC string into its parts. The version
// segment may be omitted, in which case v=19 is assumed.
func parseArgon2idHash(s string) (version, memory, time, parallelism uint32, salt, hash []byte, err error) {
	parts := strings.Split(s, "$")
	if len(parts) < 2 || parts[0] != "" || parts[1] != "argon2id" {
		return 0, 0, 0, 0, nil, nil, fmt.Errorf("%w: not argon2id", ErrUnsupportedHash)
	}
	parts = parts[2:]

	version = argon2Version
	if len(parts) > 0 && strings.HasPrefix(parts[0], "v=") {
		v, convErr := strconv.ParseUint(strings.TrimPrefix(parts[0], "v="), 10, 32)
		if convErr != nil {
			return 0, 0, 0, 0, nil, nil, fmt.Errorf("invalid argon2id version: %w", convErr)
		}
		version = uint32(v)
		parts = parts[1:]
	}
	if len(parts) != 3 {
		return 0, 0, 0, 0, nil, nil, fmt.Errorf("invalid argon2id hash: expected params, salt and hash")
	}

	memory, time, parallelism, err = parseArgon2idParams(parts[0])
	if err != nil {
		return 0, 0, 0, 0, nil, nil, err
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return 0, 0, 0, 0, nil, nil, fmt.Errorf("invalid argon2id salt: %w", err)
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return 0, 0, 0, 0, nil, nil, fmt.Errorf("invalid argon2id hash: %w", err)
	}
	if len(hash) == 0 {
		return 0, 0, 0, 0, nil, nil, fmt.Errorf("invalid argon2id hash: empty")
	}
	return version, memory, time, parallelism, salt, hash, nil
}

func parseArgon2idParams(s string) (memory, time, parallelism uint32, err error) {
	seen := map[string]bool{}
	for _, kv := range strings.Split(s, ",") {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return 0, 0, 0, fmt.Errorf("invalid argon2id parameter %q", kv)
		}
		n, convErr := strconv.ParseUint(val, 10, 32)
		if convErr != nil || n == 0 {
			return 0, 0, 0, fmt.Errorf("invalid argon2id parameter %q", kv)
		}
		switch key {
		case "m":
			memory = uint32(n)
		case "t":
			time = uint32(n)
		case "p":
			if n > 255 {
				return 0, 0, 0, fmt.Errorf("invalid argon2id parallelism %d", n)
			}
			parallelism = uint32(n)
		default:
			return 0, 0, 0, fmt.Errorf("unknown argon2id parameter %q", key)
		}
		seen[key] = true
	}
	if !seen["m"] || !seen["t"] || !seen["p"] {
		return 0, 0, 0, fmt.Errorf("argon2id parameters must include m, t and p")
	}
	return memory, time, parallelism, nil
}
