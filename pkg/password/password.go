// Package password hashes and verifies user passwords.
//
// Verification accepts bcrypt hashes (including PHP's "$2y$" prefix) and
// argon2id PHC strings; new hashes are argon2id. All comparisons are
// constant time.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidHash         = errors.New("password: invalid hash format")
	ErrUnsupportedHash     = errors.New("password: unsupported hash algorithm")
	ErrIncompatibleVersion = errors.New("password: incompatible argon2 version")
	ErrEmptyPassword       = errors.New("password: empty password")
)

const argon2ID = "argon2id"

// Params controls argon2id hashing cost.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams are used by Hash.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Verifier checks a plaintext password against a stored hash.
type Verifier interface {
	Verify(plain, encoded string) (bool, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(plain, encoded string) (bool, error)

// Verify calls f(plain, encoded).
func (f VerifierFunc) Verify(plain, encoded string) (bool, error) {
	return f(plain, encoded)
}

// Default is the package verifier backed by Verify.
var Default Verifier = VerifierFunc(Verify)

// Hash returns an argon2id PHC string for plain using DefaultParams.
func Hash(plain string) (string, error) {
	return HashWithParams(plain, DefaultParams)
}

// HashWithParams returns an argon2id PHC string for plain.
func HashWithParams(plain string, p Params) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plain), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2ID, argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plain matches encoded.
// A mismatch is (false, nil); an unparseable hash is an error.
func Verify(plain, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, errors.Join(ErrInvalidHash, err)
	case strings.HasPrefix(encoded, "$"+argon2ID+"$"):
		return verifyArgon2id(plain, encoded)
	default:
		return false, ErrUnsupportedHash
	}
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// Burn runs a full verification against a throwaway hash and discards the
// result. Callers use it when the account lookup fails so both paths cost
// the same.
func Burn(v Verifier, plain string) {
	dummyOnce.Do(func() {
		h, err := Hash("waypoint-dummy-password")
		if err == nil {
			dummyHash = h
		}
	})
	if v == nil {
		v = Default
	}
	_, _ = v.Verify(plain, dummyHash)
}

func verifyArgon2id(plain, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return false, ErrInvalidHash
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil {
		return false, ErrInvalidHash
	}
	if version != argon2.Version {
		return false, ErrIncompatibleVersion
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return false, errors.Join(ErrInvalidHash, err)
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return false, ErrInvalidHash
	}

	salt, err := decodeB64(parts[4])
	if err != nil {
		return false, errors.Join(ErrInvalidHash, err)
	}
	key, err := decodeB64(parts[5])
	if err != nil || len(key) == 0 {
		return false, ErrInvalidHash
	}

	computed := argon2.IDKey([]byte(plain), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// decodeB64 accepts both unpadded (PHC/PHP) and padded base64.
func decodeB64(s string) ([]byte, error) {
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
