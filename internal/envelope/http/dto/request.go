// Package dto provides data transfer objects for the authorization endpoint.
package dto

import (
	"encoding/json"

	validation "github.com/jellydator/validation"
)

// TransportInfo carries the channel facts the relay observed for the message.
// These are asserted by the authenticated relay, never taken from the
// envelope itself.
type TransportInfo struct {
	Encrypted bool    `json:"encrypted"`
	Platform  string  `json:"platform"`
	RateCount float64 `json:"rate_count"`
}

// AuthorizeRequest contains the parameters for an authorization decision: the
// raw wire envelope plus the relay's transport observations.
type AuthorizeRequest struct {
	Envelope  json.RawMessage `json:"envelope"`
	Transport TransportInfo   `json:"transport"`
}

// Validate checks if the authorize request is valid. Envelope content is not
// inspected here; malformed envelopes produce a deny decision, not a
// validation error.
func (r *AuthorizeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Envelope,
			validation.Required,
		),
	)
}
