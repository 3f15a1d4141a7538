// Package service generates and checks the credentials relay clients
// present: random client secrets hashed with Argon2id and opaque bearer
// tokens hashed with SHA-256.
package service

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// secretService hashes client secrets with Argon2id.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// GenerateSecret draws a 32-byte random secret and returns it alongside
// its hash. The plain form is handed to the operator once; the hash is what
// gets stored.
func (s *secretService) GenerateSecret() (plainSecret string, hashedSecret string, error error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random secret")
	}
	plainSecret = base64.URLEncoding.EncodeToString(randomBytes)

	hashedSecret, err := s.HashSecret(plainSecret)
	if err != nil {
		return "", "", err
	}

	return plainSecret, hashedSecret, nil
}

// HashSecret hashes a plain secret with Argon2id.
func (s *secretService) HashSecret(plainSecret string) (hashedSecret string, error error) {
	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hashedSecret, nil
}

// CompareSecret checks a presented secret against a stored hash. Errors
// (malformed hash, unknown parameters) read as a mismatch.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}

// NewSecretService creates the Argon2id-backed SecretService with the
// moderate hashing policy.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// pwdhash only rejects invalid policies
		panic(err)
	}

	return &secretService{
		hasher: hasher,
	}
}
