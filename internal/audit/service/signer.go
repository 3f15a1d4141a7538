// Package service provides the audit record signer and the KMS-backed key
// keeper it draws its signing key from.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/moltid/authcore/internal/audit/domain"
	apperrors "github.com/moltid/authcore/internal/errors"
)

// Signer signs and verifies audit records with a key derived from the root
// audit key.
type Signer interface {
	Sign(rootKey []byte, record *auditDomain.Record) ([]byte, error)
	Verify(rootKey []byte, record *auditDomain.Record) error
}

type signer struct{}

// NewSigner creates an HMAC-based audit record signer using HKDF-SHA256 for
// key derivation and HMAC-SHA256 for signature generation.
func NewSigner() Signer {
	return &signer{}
}

// deriveSigningKey derives a 32-byte signing key from the root key. The info
// string is versioned for future algorithm changes.
func (s *signer) deriveSigningKey(rootKey []byte) ([]byte, error) {
	kdf := hkdf.New(sha256.New, rootKey, nil, []byte("audit-record-signing-v1"))

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, err
	}
	return signingKey, nil
}

// canonicalize converts a record to its canonical byte representation.
// Variable-length fields are length-prefixed so no two distinct records
// share canonical bytes.
func (s *signer) canonicalize(record *auditDomain.Record) []byte {
	buf := make([]byte, 0, 512)

	buf = append(buf, record.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(record.MessageID))
	buf = appendLengthPrefixed(buf, []byte(record.Sender))
	buf = appendLengthPrefixed(buf, []byte(record.Operation))
	buf = appendLengthPrefixed(buf, []byte(record.Verdict))
	buf = appendLengthPrefixed(buf, []byte(record.ReasonCode))
	buf = appendLengthPrefixed(buf, []byte(record.ResolvedCapability))

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(record.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	if len(data) > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates the HMAC-SHA256 signature for the record.
func (s *signer) Sign(rootKey []byte, record *auditDomain.Record) ([]byte, error) {
	signingKey, err := s.deriveSigningKey(rootKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive signing key")
	}
	defer zero(signingKey)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(s.canonicalize(record))
	return mac.Sum(nil), nil
}

// Verify checks the record's signature. Returns ErrRecordTampered when the
// content no longer matches.
func (s *signer) Verify(rootKey []byte, record *auditDomain.Record) error {
	expected, err := s.Sign(rootKey, record)
	if err != nil {
		return err
	}
	if !hmac.Equal(record.Signature, expected) {
		return auditDomain.ErrRecordTampered
	}
	return nil
}

// zero overwrites key material after use.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
