// Package domain defines the consent token model: a signed statement by a
// data subject permitting specific PII types to flow for a stated purpose.
package domain

import (
	"time"

	"github.com/moltid/authcore/internal/pii"
)

// Token is a signed consent grant. Expiry is unix milliseconds, matching the
// envelope wire format.
type Token struct {
	ID           string     `json:"id"`
	SubjectTypes []pii.Type `json:"subject_types"`
	GrantedBy    string     `json:"granted_by"`
	Purpose      string     `json:"purpose"`
	Scope        string     `json:"scope"`
	Expires      int64      `json:"expires"`
	Signature    string     `json:"signature"`
}

// ActiveAt reports whether the token is unexpired at now. The expiry bound is
// inclusive.
func (t *Token) ActiveAt(now time.Time) bool {
	return now.UnixMilli() <= t.Expires
}

// Covers reports whether every detected PII type is within the consented set.
func (t *Token) Covers(detected []pii.Type) bool {
	return pii.CoveredBy(detected, t.SubjectTypes)
}
