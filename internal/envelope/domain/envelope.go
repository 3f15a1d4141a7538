// Package domain defines the message envelope wire model: the compact JSON
// frame every agent message travels in.
package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/moltid/authcore/internal/authz"
	"github.com/moltid/authcore/internal/cryptoutil"
	"github.com/moltid/authcore/internal/pii"
)

// Classification is the data sensitivity tag on an envelope.
type Classification string

const (
	// ClassificationPublic is safe for anyone.
	ClassificationPublic Classification = "pub"

	// ClassificationInternal is agent-to-agent only.
	ClassificationInternal Classification = "int"

	// ClassificationConfidential is sensitive business data.
	ClassificationConfidential Classification = "conf"

	// ClassificationPII is personal data and requires consent.
	ClassificationPII Classification = "pii"

	// ClassificationSecret is credentials and keys; never logged, never
	// sent across organizations.
	ClassificationSecret Classification = "sec"
)

// Valid reports whether the classification is one of the five known tags.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationPublic, ClassificationInternal, ClassificationConfidential,
		ClassificationPII, ClassificationSecret:
		return true
	}
	return false
}

// MustEncrypt reports whether the classification requires an encrypted
// channel.
func (c Classification) MustEncrypt() bool {
	switch c {
	case ClassificationConfidential, ClassificationPII, ClassificationSecret:
		return true
	}
	return false
}

// CanLog reports whether payloads of this classification may appear in logs.
func (c Classification) CanLog() bool {
	return c != ClassificationSecret
}

// AgentRef identifies a message sender or recipient.
type AgentRef struct {
	Agent string `json:"agent"`
	Org   string `json:"org"`
	Key   string `json:"key,omitempty"`

	// EncKey is the X25519 key for payload encryption, when offered.
	EncKey string `json:"enc_key,omitempty"`

	// Delegation is the id of the delegation token the sender acts under.
	// Empty when the sender acts on its own authority.
	Delegation string `json:"delegation,omitempty"`
}

// ConsentClaim is the consent reference carried inside pii_meta.
type ConsentClaim struct {
	GrantedBy string `json:"granted_by"`
	Purpose   string `json:"purpose"`

	// Proof is the consent token id backing this claim.
	Proof string `json:"proof"`

	Expires int64  `json:"expires,omitempty"`
	Scope   string `json:"scope,omitempty"`
}

// PIIMeta is the metadata block required on pii-classified envelopes.
type PIIMeta struct {
	Types      []pii.Type    `json:"types"`
	Consent    *ConsentClaim `json:"consent,omitempty"`
	MaskFields []string      `json:"mask_fields,omitempty"`
}

// Envelope is the wire message frame. Timestamps are unix milliseconds.
type Envelope struct {
	Version        string          `json:"v"`
	ID             string          `json:"id"`
	Timestamp      int64           `json:"ts"`
	Operation      Operation       `json:"op"`
	From           AgentRef        `json:"from"`
	To             AgentRef        `json:"to"`
	Payload        json.RawMessage `json:"p"`
	Classification Classification  `json:"cls"`

	ReplyTo              string         `json:"re,omitempty"`
	Expires              int64          `json:"exp,omitempty"`
	CapabilitiesRequired []string       `json:"cap,omitempty"`
	PII                  *PIIMeta       `json:"pii_meta,omitempty"`
	Extensions           map[string]any `json:"ext,omitempty"`

	Signature string `json:"sig,omitempty"`

	// Body is the payload decoded into the operation's typed form,
	// populated by Parse. Not part of the wire frame or signing bytes.
	Body any `json:"-"`
}

// SupportedVersionPrefix is the protocol version family this core accepts.
const SupportedVersionPrefix = "0."

// Parse decodes a wire envelope, validates the frame, and decodes the
// payload into the operation's typed form.
func Parse(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, authz.ErrMalformedMessage
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	body, err := DecodePayload(env.Operation, env.Payload)
	if err != nil {
		return nil, err
	}
	env.Body = body
	return &env, nil
}

// Validate checks required fields, version support, and classification
// consistency.
func (e *Envelope) Validate() error {
	switch {
	case e.ID == "":
		return authz.ErrMalformedMessage
	case e.Timestamp == 0:
		return authz.ErrMalformedMessage
	case !strings.HasPrefix(e.Version, SupportedVersionPrefix):
		return authz.ErrMalformedMessage
	case !e.Operation.Valid():
		return authz.ErrMalformedMessage
	case e.From.Agent == "" || e.To.Agent == "":
		return authz.ErrMalformedMessage
	case !e.Classification.Valid():
		return authz.ErrMalformedMessage
	}
	return nil
}

// ConsentProof returns the consent token id attached to the envelope, empty
// when no consent claim is present. A pii-classified envelope without a
// proof is structurally fine; refusing it is the authorizer's call.
func (e *Envelope) ConsentProof() string {
	if e.PII == nil || e.PII.Consent == nil {
		return ""
	}
	return e.PII.Consent.Proof
}

// ExpiredAt reports whether the envelope's own expiry has passed. Envelopes
// without an expiry never expire.
func (e *Envelope) ExpiredAt(now time.Time) bool {
	return e.Expires != 0 && now.UnixMilli() > e.Expires
}

// SentAt returns the envelope timestamp as a time.
func (e *Envelope) SentAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// SigningBytes returns the canonical byte form the sender's signature
// covers: the wire JSON, keys sorted, compact, with the sig field removed.
func (e *Envelope) SigningBytes() ([]byte, error) {
	unsigned := *e
	unsigned.Signature = ""
	return cryptoutil.CanonicalJSON(&unsigned)
}
