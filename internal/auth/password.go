// Package auth provides password hashing, session tokens and request principals.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported hashing algorithms.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// Argon2id defaults (OWASP 2024 recommended minimum).
const (
	DefaultArgon2Time    = 3
	DefaultArgon2Memory  = 64 * 1024 // 64 MB
	DefaultArgon2Threads = 4

	argon2KeyLen  = 32
	argon2SaltLen = 16
)

var (
	// ErrInvalidHash indicates the hash format is invalid.
	ErrInvalidHash = errors.New("invalid hash format")
	// ErrIncompatibleVersion indicates the hash version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	// ErrUnknownAlgorithm indicates an unsupported hashing algorithm was configured.
	ErrUnknownAlgorithm = errors.New("unknown password hashing algorithm")
)

// HasherConfig selects the algorithm and its cost parameters.
type HasherConfig struct {
	Algorithm     string
	Argon2Time    uint32
	Argon2Memory  uint32 // KiB
	Argon2Threads uint8
	BcryptCost    int
}

// DefaultHasherConfig returns argon2id with the recommended parameters.
func DefaultHasherConfig() HasherConfig {
	return HasherConfig{
		Algorithm:     AlgorithmArgon2id,
		Argon2Time:    DefaultArgon2Time,
		Argon2Memory:  DefaultArgon2Memory,
		Argon2Threads: DefaultArgon2Threads,
		BcryptCost:    bcrypt.DefaultCost,
	}
}

// Hasher hashes and verifies passwords.
// New hashes use the configured algorithm; verification accepts either
// algorithm so existing digests keep working after a switch.
type Hasher struct {
	cfg HasherConfig
}

// NewHasher validates cfg and returns a Hasher.
func NewHasher(cfg HasherConfig) (*Hasher, error) {
	switch cfg.Algorithm {
	case AlgorithmArgon2id:
		if cfg.Argon2Time == 0 || cfg.Argon2Memory == 0 || cfg.Argon2Threads == 0 {
			return nil, fmt.Errorf("argon2 parameters must be positive: t=%d m=%d p=%d",
				cfg.Argon2Time, cfg.Argon2Memory, cfg.Argon2Threads)
		}
	case AlgorithmBcrypt:
		if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d",
				bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, cfg.Algorithm)
	}
	return &Hasher{cfg: cfg}, nil
}

// Algorithm returns the algorithm used for new hashes.
func (h *Hasher) Algorithm() string {
	return h.cfg.Algorithm
}

// Hash returns a self-describing digest of password.
func (h *Hasher) Hash(password string) (string, error) {
	if h.cfg.Algorithm == AlgorithmBcrypt {
		digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cfg.BcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return string(digest), nil
	}
	return h.hashArgon2(password)
}

func (h *Hasher) hashArgon2(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		h.cfg.Argon2Time,
		h.cfg.Argon2Memory,
		h.cfg.Argon2Threads,
		argon2KeyLen,
	)

	// PHC string format:
	// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.cfg.Argon2Memory,
		h.cfg.Argon2Time,
		h.cfg.Argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Matches reports whether password produces encodedHash.
// A wrong password is (false, nil); a malformed digest is an error.
func (h *Hasher) Matches(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return verifyArgon2(password, encodedHash)
	case strings.HasPrefix(encodedHash, "$2a$"),
		strings.HasPrefix(encodedHash, "$2b$"),
		strings.HasPrefix(encodedHash, "$2y$"):
		return verifyBcrypt(password, encodedHash)
	default:
		return false, ErrInvalidHash
	}
}

func verifyBcrypt(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}

func verifyArgon2(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, ErrInvalidHash
	}
	if version != argon2.Version {
		return false, ErrIncompatibleVersion
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrInvalidHash
	}

	computedHash := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		threads,
		uint32(len(expectedHash)),
	)

	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1, nil
}

// QuickHash returns a SHA256 hash of the input for storage keys.
// This is NOT for password storage.
func QuickHash(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
