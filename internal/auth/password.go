package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"

	"pharmacy/m/internal/apperror"
)

const legacyPrefix = "pbkdf2_sha256$"

// PasswordHasher hashes new passwords and verifies stored digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
	NeedsRehash(digest string) bool
}

// Passwords hashes with bcrypt and still accepts pbkdf2_sha256$iterations$salt$digest
// values written by the previous system.
type Passwords struct {
	cost int
}

func NewPasswords(cost int) *Passwords {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Passwords{cost: cost}
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func (p *Passwords) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", apperror.InvalidInput("password must be at most %d bytes", maxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (p *Passwords) Verify(password, digest string) bool {
	if strings.HasPrefix(digest, legacyPrefix) {
		return verifyPBKDF2(password, digest)
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// NeedsRehash reports whether digest should be replaced by a fresh bcrypt hash.
func (p *Passwords) NeedsRehash(digest string) bool {
	if strings.HasPrefix(digest, legacyPrefix) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(digest))
	return err != nil || cost < p.cost
}

func verifyPBKDF2(password, digest string) bool {
	parts := strings.SplitN(digest, "$", 4)
	if len(parts) != 4 {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	expected, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(expected) == 0 {
		return false
	}
	derived := pbkdf2.Key([]byte(password), salt, iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(derived, expected) == 1
}

// LegacyDigest builds a pbkdf2_sha256 digest in the previous system's format.
func LegacyDigest(password string, salt []byte, iterations int) string {
	derived := pbkdf2.Key([]byte(password), salt, iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("%s%d$%s$%s", legacyPrefix, iterations,
		base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(derived))
}
