package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	consentDomain "github.com/moltid/authcore/internal/consent/domain"
	consentUseCase "github.com/moltid/authcore/internal/consent/usecase"
	"github.com/moltid/authcore/internal/cryptoutil"
	"github.com/moltid/authcore/internal/pii"
)

// RegisterConsentParams carries the flag values for the register-consent
// command.
type RegisterConsentParams struct {
	Grantor      string
	GrantorKey   string
	SubjectTypes string
	Purpose      string
	Scope        string
	TTL          time.Duration
	Format       string
}

// RunRegisterConsent signs a consent token with the grantor's key and stores
// it so later envelopes can reference it by id.
//
// Requirements: Database must be migrated and accessible. The grantor's key
// must match the key resolvable for the grantor DID or registration fails.
func RunRegisterConsent(
	ctx context.Context,
	registrar consentUseCase.Registrar,
	logger *slog.Logger,
	writer io.Writer,
	params RegisterConsentParams,
) error {
	subjectTypes, err := parseSubjectTypes(params.SubjectTypes)
	if err != nil {
		return err
	}
	if params.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got: %s", params.TTL)
	}

	priv, err := cryptoutil.DecodePrivateKey(params.GrantorKey)
	if err != nil {
		return fmt.Errorf("failed to decode grantor key: %w", err)
	}

	logger.Info("registering consent token",
		slog.String("grantor", params.Grantor),
	)

	token := &consentDomain.Token{
		ID:           uuid.Must(uuid.NewV7()).String(),
		SubjectTypes: subjectTypes,
		GrantedBy:    params.Grantor,
		Purpose:      params.Purpose,
		Scope:        params.Scope,
		Expires:      time.Now().UTC().Add(params.TTL).UnixMilli(),
	}

	signed, err := consentUseCase.SigningBytes(token)
	if err != nil {
		return fmt.Errorf("failed to build consent signing bytes: %w", err)
	}
	token.Signature = cryptoutil.NewAdapter().Sign(priv, signed)

	if err := registrar.Register(ctx, token, time.Now()); err != nil {
		return fmt.Errorf("failed to register consent token: %w", err)
	}

	if params.Format == "json" {
		if err := outputConsentJSON(writer, token); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputConsentText(writer, token)
	}

	logger.Info("consent token registered",
		slog.String("token_id", token.ID),
		slog.String("grantor", token.GrantedBy),
	)

	return nil
}

// parseSubjectTypes converts a comma-separated string into a slice of PII types.
func parseSubjectTypes(input string) ([]pii.Type, error) {
	parts := strings.Split(input, ",")
	types := make([]pii.Type, 0, len(parts))

	for _, part := range parts {
		t := pii.Type(strings.TrimSpace(part))
		if t != "" {
			types = append(types, t)
		}
	}

	if len(types) == 0 {
		return nil, fmt.Errorf("at least one subject type is required")
	}

	return types, nil
}

// outputConsentText outputs the result in human-readable text format.
func outputConsentText(writer io.Writer, token *consentDomain.Token) {
	_, _ = fmt.Fprintln(writer, "\nConsent token registered!")
	_, _ = fmt.Fprintf(writer, "Token ID:   %s\n", token.ID)
	_, _ = fmt.Fprintf(writer, "Granted By: %s\n", token.GrantedBy)
	_, _ = fmt.Fprintf(writer, "Expires:    %s\n", time.UnixMilli(token.Expires).UTC().Format(time.RFC3339))
}

// outputConsentJSON outputs the full token in JSON wire form.
func outputConsentJSON(writer io.Writer, token *consentDomain.Token) error {
	jsonBytes, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
