package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/moltid/authcore/internal/cryptoutil"
	revocationDomain "github.com/moltid/authcore/internal/revocation/domain"
	revocationUseCase "github.com/moltid/authcore/internal/revocation/usecase"
)

// RunRevoke signs and records a revocation for a delegation token, signing
// key, or consent token. The authority key must belong to whoever issued the
// subject, or the registry rejects the record.
//
// Requirements: Database must be migrated and accessible.
func RunRevoke(
	ctx context.Context,
	registry revocationUseCase.Registry,
	logger *slog.Logger,
	writer io.Writer,
	subjectID, kind, reason, authorityKey, format string,
) error {
	subjectKind := revocationDomain.SubjectKind(kind)
	switch subjectKind {
	case revocationDomain.SubjectKindDelegation, revocationDomain.SubjectKindKey, revocationDomain.SubjectKindConsent:
	default:
		return fmt.Errorf("invalid subject kind: %s (valid options: delegation, key, consent)", kind)
	}

	priv, err := cryptoutil.DecodePrivateKey(authorityKey)
	if err != nil {
		return fmt.Errorf("failed to decode authority key: %w", err)
	}

	logger.Info("recording revocation",
		slog.String("subject_id", subjectID),
		slog.String("subject_kind", kind),
	)

	record := &revocationDomain.Record{
		SubjectID:   subjectID,
		SubjectKind: subjectKind,
		RevokedAt:   time.Now().UTC(),
		Reason:      reason,
	}

	signed, err := revocationUseCase.SigningBytes(record)
	if err != nil {
		return fmt.Errorf("failed to build record signing bytes: %w", err)
	}
	record.AuthoritySignature = cryptoutil.NewAdapter().Sign(priv, signed)

	if err := registry.Record(ctx, record); err != nil {
		return fmt.Errorf("failed to record revocation: %w", err)
	}

	if format == "json" {
		if err := outputRevokeJSON(writer, record); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Revocation recorded for %s %q\n", kind, subjectID)
	}

	logger.Info("revocation recorded",
		slog.String("record_id", record.ID.String()),
		slog.String("subject_id", subjectID),
	)

	return nil
}

// outputRevokeJSON outputs the stored record in JSON format.
func outputRevokeJSON(writer io.Writer, record *revocationDomain.Record) error {
	jsonBytes, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
