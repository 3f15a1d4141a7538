package cryptoutil

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Adapter is the signature interface the validators depend on. It exists so
// tests can substitute a deterministic implementation and so the validation
// logic never touches key material directly.
type Adapter interface {
	// Verify reports whether signature (wire form, "ed25519:<base64>" or bare
	// base64) is a valid signature over data by the holder of encodedPub.
	// Any decode failure is reported as an invalid signature, never an error:
	// ambiguity is denial.
	Verify(encodedPub string, data []byte, signature string) bool

	// Sign produces a wire-form signature over data.
	Sign(priv ed25519.PrivateKey, data []byte) string
}

type adapter struct{}

// NewAdapter creates the production Ed25519 adapter.
func NewAdapter() Adapter {
	return adapter{}
}

func (adapter) Verify(encodedPub string, data []byte, signature string) bool {
	pub, err := DecodePublicKey(encodedPub)
	if err != nil {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(signature, KeyPrefix))
	if err != nil || len(raw) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, data, raw)
}

func (adapter) Sign(priv ed25519.PrivateKey, data []byte) string {
	return KeyPrefix + base64.StdEncoding.EncodeToString(ed25519.Sign(priv, data))
}

// HashHex returns the hex-encoded SHA-256 digest of data.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
