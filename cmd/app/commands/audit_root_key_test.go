package commands

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCreateAuditRootKey(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("local-keeper", func(t *testing.T) {
		keeperKey := make([]byte, 32)
		_, err := rand.Read(keeperKey)
		require.NoError(t, err)
		keyURI := "base64key://" + base64.URLEncoding.EncodeToString(keeperKey)

		var out bytes.Buffer
		err = RunCreateAuditRootKey(ctx, logger, &out, keyURI)

		require.NoError(t, err)
		require.Contains(t, out.String(), "KMS_KEY_URI=")
		require.Contains(t, out.String(), "AUDIT_ROOT_KEY=")
	})

	t.Run("missing-uri", func(t *testing.T) {
		err := RunCreateAuditRootKey(ctx, logger, &bytes.Buffer{}, "")

		require.Error(t, err)
		require.Contains(t, err.Error(), "--kms-key-uri is required")
	})
}
