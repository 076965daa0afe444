package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/config"
)

// MaxPasswordBytes is the longest password bcrypt can digest without truncation.
const MaxPasswordBytes = 72

const (
	argon2Time    uint32 = 3
	argon2Memory  uint32 = 64 * 1024
	argon2Threads uint8  = 2
	argon2KeyLen  uint32 = 32
	argon2SaltLen        = 16

	argon2Prefix = "$argon2id$"
)

var errInvalidHash = errors.New("invalid password hash")

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// Hasher hashes with the configured algorithm and verifies digests of any supported algorithm.
type Hasher struct {
	algorithm  string
	bcryptCost int
}

// NewHasher builds a hasher from auth configuration.
func NewHasher(cfg config.AuthConfig) *Hasher {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	algorithm := cfg.PasswordAlgorithm
	if algorithm == "" {
		algorithm = "bcrypt"
	}
	return &Hasher{algorithm: algorithm, bcryptCost: cost}
}

// Hash returns a salted digest of password.
func (h *Hasher) Hash(password string) (string, error) {
	if h.algorithm == "argon2id" {
		return HashArgon2(password)
	}
	return HashPassword(password, h.bcryptCost)
}

// Verify reports whether password matches digest. Malformed digests never match.
func (h *Hasher) Verify(password, digest string) bool {
	if strings.HasPrefix(digest, argon2Prefix) {
		ok, err := VerifyArgon2(password, digest)
		return err == nil && ok
	}
	return ComparePassword(digest, password) == nil
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// HashArgon2 returns an argon2id hash string including parameters and salt.
func HashArgon2(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// VerifyArgon2 checks a password against an encoded argon2id hash.
func VerifyArgon2(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errInvalidHash
	}

	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return false, errInvalidHash
	}

	var mem, timeCost uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &timeCost, &threads); err != nil {
		return false, errInvalidHash
	}
	if mem == 0 || timeCost == 0 || threads == 0 {
		return false, errInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errInvalidHash
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false, errInvalidHash
	}

	actual := argon2.IDKey([]byte(password), salt, timeCost, mem, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}
