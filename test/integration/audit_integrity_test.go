// Integration tests for audit record signing and tamper detection.
package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envelopeDomain "github.com/moltid/authcore/internal/envelope/domain"
	envelopeDTO "github.com/moltid/authcore/internal/envelope/http/dto"
)

// TestIntegration_AuditIntegrity verifies that every stored verdict carries a
// valid signature and that direct database edits are detected.
func TestIntegration_AuditIntegrity(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range integrationDrivers() {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			sender := ctx.registerAgent(t, "audited-sender", "acme", sendCaps())
			receiver := ctx.registerAgent(t, "audited-receiver", "acme", nil)

			// Emit a mix of allow and deny verdicts.
			for i := 0; i < 3; i++ {
				env := newEnvelope(sender, receiver, envelopeDomain.OperationQuery, `{"domain":"ops","intent":"status.check"}`)
				raw := ctx.signEnvelope(t, env, sender.PrivateKey)
				decision := ctx.authorize(t, raw, envelopeDTO.TransportInfo{Encrypted: true})
				require.True(t, decision.Allowed)
			}
			denied := newEnvelope(sender, receiver, envelopeDomain.OperationTask, `{"action":"create","task_id":"cred-x","params":{"cred":"x"}}`)
			denied.Classification = envelopeDomain.ClassificationSecret
			deniedRaw := ctx.signEnvelope(t, denied, sender.PrivateKey)
			decision := ctx.authorize(t, deniedRaw, envelopeDTO.TransportInfo{Encrypted: false})
			require.False(t, decision.Allowed)

			verifier, err := ctx.container.AuditVerifier()
			require.NoError(t, err, "failed to get audit verifier")

			from := time.Now().UTC().Add(-time.Hour)
			to := time.Now().UTC().Add(time.Hour)

			t.Run("01_AllRecordsVerify", func(t *testing.T) {
				result, err := verifier.VerifyRange(context.Background(), from, to, 1000)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, result.Checked, 4)
				assert.Empty(t, result.Tampered, "fresh records must verify")
			})

			t.Run("02_TamperedRecordDetected", func(t *testing.T) {
				// Flip a deny verdict directly in the database, bypassing
				// the sink.
				var query string
				if tc.dbDriver == "postgres" {
					query = `UPDATE audit_records SET verdict = 'allow'
						 WHERE id = (SELECT id FROM audit_records WHERE verdict = 'deny' LIMIT 1)`
				} else {
					query = `UPDATE audit_records SET verdict = 'allow'
						 WHERE verdict = 'deny' LIMIT 1`
				}
				res, err := ctx.db.Exec(query)
				require.NoError(t, err, "failed to tamper with audit record")
				affected, err := res.RowsAffected()
				require.NoError(t, err)
				require.EqualValues(t, 1, affected, "expected to modify exactly one record")

				result, err := verifier.VerifyRange(context.Background(), from, to, 1000)
				require.NoError(t, err)
				assert.Len(t, result.Tampered, 1, "the edited record must be flagged")
			})

			t.Run("03_RecordReadableOverHTTP", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/audit-records", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode, "list failed: %s", body)
			})
		})
	}
}
