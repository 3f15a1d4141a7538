package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/moltid/authcore/internal/capability"
	"github.com/moltid/authcore/internal/cryptoutil"
	identityDomain "github.com/moltid/authcore/internal/identity/domain"
	identityUseCase "github.com/moltid/authcore/internal/identity/usecase"
)

// RunCreateAgent generates a fresh ed25519 keypair and registers a new agent.
// The DID is derived from the public key, so no registry coordination is
// needed. The private key is printed once and never stored server-side.
//
// Requirements: Database must be migrated and accessible.
func RunCreateAgent(
	ctx context.Context,
	agentUseCase identityUseCase.AgentUseCase,
	logger *slog.Logger,
	writer io.Writer,
	name, org, capabilitiesJSON, format string,
) error {
	if name == "" {
		return fmt.Errorf("agent name is required")
	}

	var rootCapabilities []capability.Capability
	if capabilitiesJSON != "" {
		if err := json.Unmarshal([]byte(capabilitiesJSON), &rootCapabilities); err != nil {
			return fmt.Errorf("failed to parse capabilities JSON: %w", err)
		}
	}

	logger.Info("creating new agent", slog.String("name", name))

	pub, priv, err := cryptoutil.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("failed to generate keypair: %w", err)
	}

	agent, err := agentUseCase.Register(ctx, &identityDomain.RegisterAgentInput{
		Name:             name,
		Org:              org,
		PublicKey:        cryptoutil.EncodePublicKey(pub),
		RootCapabilities: rootCapabilities,
	})
	if err != nil {
		return fmt.Errorf("failed to register agent: %w", err)
	}

	privateKey := cryptoutil.EncodePrivateKey(priv)

	if format == "json" {
		if err := outputCreateAgentJSON(writer, agent, privateKey); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputCreateAgentText(writer, agent, privateKey)
	}

	logger.Info("agent created successfully",
		slog.String("agent_id", agent.ID.String()),
		slog.String("did", agent.DID),
	)

	return nil
}

// outputCreateAgentText outputs the result in human-readable text format.
func outputCreateAgentText(writer io.Writer, agent *identityDomain.Agent, privateKey string) {
	_, _ = fmt.Fprintln(writer, "\nAgent created successfully!")
	_, _ = fmt.Fprintf(writer, "Agent ID:    %s\n", agent.ID.String())
	_, _ = fmt.Fprintf(writer, "DID:         %s\n", agent.DID)
	_, _ = fmt.Fprintf(writer, "Public Key:  %s\n", agent.PublicKey)
	_, _ = fmt.Fprintf(writer, "Private Key: %s\n", privateKey)
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The private key is shown only once. Store it securely.")
}

// outputCreateAgentJSON outputs the result in JSON format for machine consumption.
func outputCreateAgentJSON(writer io.Writer, agent *identityDomain.Agent, privateKey string) error {
	result := map[string]string{
		"agent_id":    agent.ID.String(),
		"did":         agent.DID,
		"public_key":  agent.PublicKey,
		"private_key": privateKey,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
