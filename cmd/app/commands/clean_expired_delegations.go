package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	delegationUseCase "github.com/moltid/authcore/internal/delegation/usecase"
)

// RunCleanExpiredDelegations deletes delegation tokens that expired more than
// the specified number of days ago. Revocation records are untouched: a revoked
// token id stays revoked even after the token itself is gone.
//
// Requirements: Database must be migrated and accessible.
func RunCleanExpiredDelegations(
	ctx context.Context,
	tokenRepo delegationUseCase.TokenRepository,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning expired delegation tokens",
		slog.Int("days", days),
	)

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	count, err := tokenRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean expired delegation tokens: %w", err)
	}

	if format == "json" {
		if err := outputCleanDelegationsJSON(writer, count, days); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Successfully deleted %d expired delegation token(s) older than %d day(s)\n", count, days)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
	)

	return nil
}

// outputCleanDelegationsJSON outputs the result in JSON format for machine consumption.
func outputCleanDelegationsJSON(writer io.Writer, count int64, days int) error {
	result := map[string]interface{}{
		"count": count,
		"days":  days,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
