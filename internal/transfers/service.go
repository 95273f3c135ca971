package transfers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/internal/ledger"
	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
	"github.com/fishermenfirst/fleetquota-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, orgID uuid.UUID) error
}

// Service moves quota between permits. Create is the single mutation path
// for transfer facts; soft delete flips one flag and never rewrites history.
type Service interface {
	Validate(ctx context.Context, orgID uuid.UUID, input CreateTransferInput) error
	Create(ctx context.Context, orgID uuid.UUID, input CreateTransferInput) (*models.QuotaTransfer, error)
	List(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]TransferView, error)
	SoftDelete(ctx context.Context, orgID, id, actorUserID uuid.UUID) error
}

// CreateTransferInput captures a requested quota movement.
type CreateTransferInput struct {
	FromLLP      string
	ToLLP        string
	SpeciesCode  enums.SpeciesCode
	Year         int
	Pounds       decimal.Decimal
	TransferDate time.Time
	Notes        *string
	CreatedBy    uuid.UUID
}

// TransferView decorates a transfer row with vessel names for history tables.
type TransferView struct {
	models.QuotaTransfer
	FromVesselName string `json:"from_vessel_name"`
	ToVesselName   string `json:"to_vessel_name"`
	Species        string `json:"species"`
}

type service struct {
	repo       Repository
	ledgerRepo ledger.Repository
	tx         txRunner
	cache      cacheInvalidator
	metrics    *metrics.QuotaMetrics
}

// NewService builds a transfer service. Cache and metrics are optional.
func NewService(repo Repository, ledgerRepo ledger.Repository, tx txRunner, cache cacheInvalidator, quotaMetrics *metrics.QuotaMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transfers repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		tx:         tx,
		cache:      cache,
		metrics:    quotaMetrics,
	}, nil
}

// Validate runs the full check set without writing, for pre-submission
// feedback. The result can go stale before Create; Create re-validates
// inside its transaction.
func (s *service) Validate(ctx context.Context, orgID uuid.UUID, input CreateTransferInput) error {
	if err := requireInput(orgID, input); err != nil {
		return err
	}
	available, err := s.available(ctx, s.ledgerRepo, orgID, input)
	if err != nil {
		return err
	}
	return Validate(input.FromLLP, input.ToLLP, input.SpeciesCode, input.Pounds, available)
}

func (s *service) Create(ctx context.Context, orgID uuid.UUID, input CreateTransferInput) (*models.QuotaTransfer, error) {
	if err := requireInput(orgID, input); err != nil {
		return nil, err
	}
	if err := ValidateStatic(input.FromLLP, input.ToLLP, input.SpeciesCode, input.Pounds); err != nil {
		s.incRejected(err)
		return nil, err
	}

	transferDate := input.TransferDate
	if transferDate.IsZero() {
		transferDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	transfer := &models.QuotaTransfer{
		OrgID:        orgID,
		FromLLP:      input.FromLLP,
		ToLLP:        input.ToLLP,
		SpeciesCode:  input.SpeciesCode,
		Year:         input.Year,
		Pounds:       input.Pounds,
		TransferDate: transferDate,
		Notes:        NormalizeNotes(input.Notes),
		CreatedBy:    input.CreatedBy,
	}

	// availability is re-checked against the same facts the insert joins,
	// so two racing managers cannot both pass on a stale read
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		available, err := s.available(ctx, s.ledgerRepo.WithTx(tx), orgID, input)
		if err != nil {
			return err
		}
		if err := Validate(input.FromLLP, input.ToLLP, input.SpeciesCode, input.Pounds, available); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, transfer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert transfer")
		}
		return nil
	})
	if err != nil {
		s.incRejected(err)
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, orgID)
	}
	s.metrics.IncTransferCreated(input.SpeciesCode.ShortName())
	return transfer, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]TransferView, error) {
	transfers, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transfers")
	}

	members, err := s.ledgerRepo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	vesselByLLP := make(map[string]string, len(members))
	for _, member := range members {
		vesselByLLP[member.LLP] = member.VesselName
	}

	views := make([]TransferView, 0, len(transfers))
	for _, transfer := range transfers {
		views = append(views, TransferView{
			QuotaTransfer:  transfer,
			FromVesselName: vesselByLLP[transfer.FromLLP],
			ToVesselName:   vesselByLLP[transfer.ToLLP],
			Species:        transfer.SpeciesCode.ShortName(),
		})
	}
	return views, nil
}

func (s *service) SoftDelete(ctx context.Context, orgID, id, actorUserID uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer id required")
	}
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	if err := s.repo.SoftDelete(ctx, orgID, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "transfer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "soft delete transfer")
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, orgID)
	}
	return nil
}

func (s *service) available(ctx context.Context, repo ledger.Repository, orgID uuid.UUID, input CreateTransferInput) (decimal.Decimal, error) {
	row, err := ledger.Compute(ctx, repo, orgID, input.FromLLP, input.SpeciesCode, input.Year)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute available quota")
	}
	return row.RemainingLbs, nil
}

func (s *service) incRejected(err error) {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
		s.metrics.IncTransferRejected("validation")
	}
}

func requireInput(orgID uuid.UUID, input CreateTransferInput) error {
	if orgID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "org context missing")
	}
	if input.FromLLP == "" || input.ToLLP == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "source and destination permits are required")
	}
	if input.Year == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "year is required")
	}
	return nil
}
