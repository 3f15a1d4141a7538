package domain

import (
	"time"

	"github.com/google/uuid"
)

// Token is a short-lived bearer token issued to an authenticated client.
// Only the SHA-256 hash of the token is stored.
type Token struct {
	ID        uuid.UUID
	TokenHash string
	ClientID  uuid.UUID
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IssueTokenInput carries the credentials presented at the token endpoint.
type IssueTokenInput struct {
	ClientID     uuid.UUID
	ClientSecret string
}

// IssueTokenOutput carries the plain token, returned exactly once.
type IssueTokenOutput struct {
	PlainToken string
	ExpiresAt  time.Time
}
