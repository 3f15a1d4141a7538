package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"gocloud.dev/secrets"

	// Register KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// RunCreateAuditRootKey generates a 32-byte root key for audit record
// signing, wraps it with the KMS key at kmsKeyURI, and prints the environment
// variables to configure. Key material is zeroed from memory after wrapping.
//
// For local development use a base64key:// URI. Never use it in production.
func RunCreateAuditRootKey(
	ctx context.Context,
	logger *slog.Logger,
	writer io.Writer,
	kmsKeyURI string,
) error {
	if kmsKeyURI == "" {
		return fmt.Errorf("--kms-key-uri is required (e.g. base64key://<32-byte-base64-key> for local development)")
	}

	rootKey := make([]byte, 32)
	if _, err := rand.Read(rootKey); err != nil {
		return fmt.Errorf("failed to generate root key: %w", err)
	}

	keeper, err := secrets.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	ciphertext, err := keeper.Encrypt(ctx, rootKey)
	if err != nil {
		return fmt.Errorf("failed to wrap root key with KMS: %w", err)
	}

	// Zero out the plaintext key
	for i := range rootKey {
		rootKey[i] = 0
	}

	_, _ = fmt.Fprintln(writer, "# Audit Root Key Configuration")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=%q\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "AUDIT_ROOT_KEY=%q\n", base64.StdEncoding.EncodeToString(ciphertext))

	logger.Info("audit root key created")

	return nil
}
