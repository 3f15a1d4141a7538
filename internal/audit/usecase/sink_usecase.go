package usecase

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	auditDomain "github.com/moltid/authcore/internal/audit/domain"
	auditService "github.com/moltid/authcore/internal/audit/service"
	apperrors "github.com/moltid/authcore/internal/errors"
)

type sink struct {
	repo   AuditRepository
	signer auditService.Signer
	keeper auditService.KeyKeeper
}

// NewSink creates a Sink that signs records with the keeper's root key
// before persisting them.
func NewSink(repo AuditRepository, signer auditService.Signer, keeper auditService.KeyKeeper) Sink {
	return &sink{repo: repo, signer: signer, keeper: keeper}
}

// Emit signs the record and persists it.
func (s *sink) Emit(ctx context.Context, record *auditDomain.Record) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.Must(uuid.NewV7())
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	// The databases store microsecond precision; signing anything finer
	// would make every round-tripped record verify as tampered.
	record.CreatedAt = record.CreatedAt.Truncate(time.Microsecond)

	rootKey, err := s.keeper.RootKey(ctx)
	if err != nil {
		return err
	}

	signature, err := s.signer.Sign(rootKey, record)
	if err != nil {
		return apperrors.Wrap(err, "failed to sign audit record")
	}
	record.Signature = signature

	return s.repo.Create(ctx, record)
}

type rangeVerifier struct {
	repo   AuditRepository
	signer auditService.Signer
	keeper auditService.KeyKeeper
}

// NewVerifier creates a Verifier over stored records.
func NewVerifier(repo AuditRepository, signer auditService.Signer, keeper auditService.KeyKeeper) Verifier {
	return &rangeVerifier{repo: repo, signer: signer, keeper: keeper}
}

// VerifyRange re-checks signatures for records created in [from, to).
func (v *rangeVerifier) VerifyRange(ctx context.Context, from, to time.Time, limit int) (*VerifyResult, error) {
	rootKey, err := v.keeper.RootKey(ctx)
	if err != nil {
		return nil, err
	}

	records, err := v.repo.List(ctx, from, to, limit)
	if err != nil {
		return nil, err
	}

	// HMAC checks are CPU bound, so spread them over the available cores.
	// Tampered ids are collected per index to keep the result order stable.
	tampered := make([]bool, len(records))
	var group errgroup.Group
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, record := range records {
		group.Go(func() error {
			if err := v.signer.Verify(rootKey, record); err != nil {
				if apperrors.Is(err, auditDomain.ErrRecordTampered) {
					tampered[i] = true
					return nil
				}
				return err
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &VerifyResult{Checked: len(records)}
	for i, record := range records {
		if tampered[i] {
			result.Tampered = append(result.Tampered, record.ID)
		}
	}
	return result, nil
}
