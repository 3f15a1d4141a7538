// Package domain defines the API authentication models for relay and
// operator clients.
//
// Relays authenticate with a client id and secret, exchange them for a
// short-lived bearer token, and are authorized per endpoint through
// policy documents attached to the client.
package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Capability defines the operations a policy can grant on an API path.
type Capability string

const (
	// ReadCapability allows reading resources.
	ReadCapability Capability = "read"

	// WriteCapability allows creating or updating resources.
	WriteCapability Capability = "write"

	// DeleteCapability allows removing resources.
	DeleteCapability Capability = "delete"

	// AuthorizeCapability allows submitting envelopes for authorization.
	AuthorizeCapability Capability = "authorize"

	// RevokeCapability allows submitting revocation records.
	RevokeCapability Capability = "revoke"
)

// PolicyDocument defines access control rules for an API path pattern.
// Paths use prefix matching with wildcard support.
type PolicyDocument struct {
	Path         string       `json:"path"`
	Capabilities []Capability `json:"capabilities"`
}

// Client represents an API client with associated authorization policies.
type Client struct {
	ID             uuid.UUID
	Secret         string //nolint:gosec // hashed client secret (not plaintext)
	Name           string
	IsActive       bool
	Policies       []PolicyDocument
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
}

// Locked reports whether the client is currently locked out.
func (c *Client) Locked(now time.Time) bool {
	return c.LockedUntil != nil && now.Before(*c.LockedUntil)
}

// matchPath checks if the request path matches the policy path pattern.
// Three wildcard forms are supported:
//  1. Full wildcard: "*" matches any path
//  2. Trailing wildcard: "prefix/*" matches any path under "prefix/" (greedy)
//  3. Mid-path wildcard: "/v1/agents/*/keys" matches paths with * as a
//     single segment
func matchPath(policyPath, requestPath string) bool {
	if policyPath == "*" {
		return true
	}

	if !strings.Contains(policyPath, "*") {
		return policyPath == requestPath
	}

	if strings.HasSuffix(policyPath, "/*") {
		prefix := strings.TrimSuffix(policyPath, "/*")
		return strings.HasPrefix(requestPath, prefix+"/")
	}

	// Mid-path wildcards match exactly one segment each.
	policyParts := strings.Split(policyPath, "/")
	requestParts := strings.Split(requestPath, "/")
	if len(policyParts) != len(requestParts) {
		return false
	}
	for i := 0; i < len(policyParts); i++ {
		if policyParts[i] == "*" {
			continue
		}
		if policyParts[i] != requestParts[i] {
			return false
		}
	}
	return true
}

// IsAllowed checks if the client's policies permit the given capability on
// the specified path. Matching is case-sensitive.
//
// Examples:
//   - "*" matches everything (admin mode)
//   - "/v1/authorize" matches only the authorize endpoint
//   - "/v1/delegations/*" matches "/v1/delegations/tok-1" and deeper paths
//   - "/v1/agents/*/keys" matches "/v1/agents/42/keys" but not
//     "/v1/agents/keys"
func (c *Client) IsAllowed(path string, capability Capability) bool {
	if path == "" || capability == "" {
		return false
	}

	for _, policy := range c.Policies {
		if matchPath(policy.Path, path) {
			if slices.Contains(policy.Capabilities, capability) {
				return true
			}
		}
	}
	return false
}

// CreateClientInput contains the parameters for creating a new API client.
// The client secret is generated server side and cannot be chosen.
type CreateClientInput struct {
	Name     string
	IsActive bool
	Policies []PolicyDocument
}

// CreateClientOutput contains the result of creating a new client. The
// plain secret is only returned once; only its hash is stored.
type CreateClientOutput struct {
	ID          uuid.UUID
	PlainSecret string
}

// UpdateClientInput contains the mutable fields of a client. The id and
// secret cannot be changed.
type UpdateClientInput struct {
	Name     string
	IsActive bool
	Policies []PolicyDocument
}
