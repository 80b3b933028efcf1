package data

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"

	"github.com/newslyhq/newsly/internal/validator"
)

// ScopeAuthentication is the token scope granting API access.
const ScopeAuthentication = "authentication"

// GenerateToken creates a random token plaintext and its SHA-256 hash. Only
// the hash is stored; the plaintext travels to the client once.
func GenerateToken() (string, []byte, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", nil, err
	}
	plaintext := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	hash := HashToken(plaintext)
	return plaintext, hash, nil
}

// HashToken computes the stored hash for a token plaintext.
func HashToken(plaintext string) []byte {
	hash := sha256.Sum256([]byte(plaintext))
	return hash[:]
}

func ValidateTokenPlaintext(v *validator.Validator, tokenPlaintext string) {
	v.Check(tokenPlaintext != "", "token", "must be provided")
	v.Check(len(tokenPlaintext) == 26, "token", "must be 26 bytes long")
}
