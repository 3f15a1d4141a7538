// Package cryptoutil wraps the signature and hashing primitives used by the
// authorization core: Ed25519 signing keys with their wire encoding, canonical
// JSON serialization, and SHA-256 hashing. Everything else in the system
// treats these as black boxes.
package cryptoutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	apperrors "github.com/moltid/authcore/internal/errors"
)

// Wire prefixes for keys and signatures. Keys and signatures travel as
// "ed25519:<base64>" strings in envelopes and tokens.
const (
	KeyPrefix = "ed25519:"
	DIDPrefix = "did:molt:key:"
)

// GenerateKeyPair creates a fresh Ed25519 keypair.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to generate keypair")
	}
	return pub, priv, nil
}

// EncodePublicKey renders a public key in wire form ("ed25519:<base64>").
func EncodePublicKey(pub ed25519.PublicKey) string {
	return KeyPrefix + base64.StdEncoding.EncodeToString(pub)
}

// EncodePrivateKey renders a private key seed in wire form. Only the 32-byte
// seed is encoded; the full private key is reconstructed on decode.
func EncodePrivateKey(priv ed25519.PrivateKey) string {
	return KeyPrefix + base64.StdEncoding.EncodeToString(priv.Seed())
}

// DecodePublicKey parses a wire-form public key. The "ed25519:" prefix is
// optional to tolerate bare base64 keys from older senders.
func DecodePublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := decodeKeyBytes(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid public key length")
	}
	return ed25519.PublicKey(raw), nil
}

// DecodePrivateKey parses a wire-form private key seed.
func DecodePrivateKey(encoded string) (ed25519.PrivateKey, error) {
	raw, err := decodeKeyBytes(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw) != ed25519.SeedSize {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid private key length")
	}
	return ed25519.NewKeyFromSeed(raw), nil
}

func decodeKeyBytes(encoded string) ([]byte, error) {
	trimmed := strings.TrimPrefix(encoded, KeyPrefix)
	raw, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid base64 key encoding")
	}
	return raw, nil
}

// DeriveDID derives the self-certifying identifier for a public key
// ("did:molt:key:<base64 public key>"). The identifier is immutable once
// derived; key rotation produces a new DID for the new key.
func DeriveDID(pub ed25519.PublicKey) string {
	return DIDPrefix + base64.StdEncoding.EncodeToString(pub)
}

// PublicKeyFromDID recovers the public key embedded in a did:molt:key
// identifier.
func PublicKeyFromDID(did string) (ed25519.PublicKey, error) {
	if !strings.HasPrefix(did, DIDPrefix) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "not a did:molt:key identifier")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(did, DIDPrefix))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid did:molt:key encoding")
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid did:molt:key length")
	}
	return ed25519.PublicKey(raw), nil
}

// Fingerprint returns a short hex fingerprint of a wire-form public key,
// suitable for logs and CLI output.
func Fingerprint(encodedPub string) string {
	sum := sha256.Sum256([]byte(strings.TrimPrefix(encodedPub, KeyPrefix)))
	return hex.EncodeToString(sum[:])[:16]
}

// ConstantTimeEqual compares two byte slices without leaking timing
// information about the position of the first difference.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
