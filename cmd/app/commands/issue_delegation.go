package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/moltid/authcore/internal/capability"
	"github.com/moltid/authcore/internal/cryptoutil"
	delegationDomain "github.com/moltid/authcore/internal/delegation/domain"
	delegationUseCase "github.com/moltid/authcore/internal/delegation/usecase"
)

// IssueDelegationParams carries the flag values for the issue-delegation
// command.
type IssueDelegationParams struct {
	Issuer           string
	IssuerKey        string
	Audience         string
	CapabilitiesJSON string
	ProofChain       []string
	TTL              time.Duration
	MaxUses          int64
	AllowDelegation  bool
	Format           string
}

// RunIssueDelegation signs and stores a delegation token. The token is
// chain-validated before storage, so an issuer cannot mint wider authority
// than it holds.
//
// Requirements: Database must be migrated and accessible.
func RunIssueDelegation(
	ctx context.Context,
	issuer delegationUseCase.Issuer,
	logger *slog.Logger,
	writer io.Writer,
	params IssueDelegationParams,
) error {
	var capabilities []capability.Capability
	if err := json.Unmarshal([]byte(params.CapabilitiesJSON), &capabilities); err != nil {
		return fmt.Errorf("failed to parse capabilities JSON: %w", err)
	}
	if len(capabilities) == 0 {
		return fmt.Errorf("at least one capability is required")
	}
	if params.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got: %s", params.TTL)
	}

	issuerKey, err := cryptoutil.DecodePrivateKey(params.IssuerKey)
	if err != nil {
		return fmt.Errorf("failed to decode issuer key: %w", err)
	}

	logger.Info("issuing delegation token",
		slog.String("issuer", params.Issuer),
		slog.String("audience", params.Audience),
	)

	now := time.Now().UTC()
	token, err := issuer.Issue(ctx, &delegationUseCase.IssueTokenInput{
		Issuer:          params.Issuer,
		IssuerKey:       issuerKey,
		Audience:        params.Audience,
		Capabilities:    capabilities,
		ProofChain:      params.ProofChain,
		NotBefore:       now,
		Expires:         now.Add(params.TTL),
		MaxUses:         params.MaxUses,
		AllowDelegation: params.AllowDelegation,
	})
	if err != nil {
		return fmt.Errorf("failed to issue delegation token: %w", err)
	}

	if params.Format == "json" {
		if err := outputIssueDelegationJSON(writer, token); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputIssueDelegationText(writer, token)
	}

	logger.Info("delegation token issued",
		slog.String("token_id", token.ID),
		slog.String("audience", token.Audience),
	)

	return nil
}

// outputIssueDelegationText outputs the result in human-readable text format.
func outputIssueDelegationText(writer io.Writer, token *delegationDomain.Token) {
	_, _ = fmt.Fprintln(writer, "\nDelegation token issued!")
	_, _ = fmt.Fprintf(writer, "Token ID: %s\n", token.ID)
	_, _ = fmt.Fprintf(writer, "Issuer:   %s\n", token.Issuer)
	_, _ = fmt.Fprintf(writer, "Audience: %s\n", token.Audience)
	_, _ = fmt.Fprintf(writer, "Expires:  %s\n", time.UnixMilli(token.Expires).UTC().Format(time.RFC3339))
	for _, cap := range token.Capabilities {
		_, _ = fmt.Fprintf(writer, "Grants:   %s\n", cap.String())
	}
}

// outputIssueDelegationJSON outputs the full token in JSON wire form.
func outputIssueDelegationJSON(writer io.Writer, token *delegationDomain.Token) error {
	jsonBytes, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
