package allocations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	pkgerrors "github.com/fishermenfirst/fleetquota-backend/pkg/errors"
)

type cacheInvalidator interface {
	Invalidate(ctx context.Context, orgID uuid.UUID) error
}

// Service manages both allocation surfaces: cooperative-level grants keyed
// by reference records, and per-permit vessel allocations that feed the
// ledger directly.
type Service interface {
	CreateQuotaAllocation(ctx context.Context, orgID uuid.UUID, input CreateQuotaAllocationInput) (*models.QuotaAllocation, error)
	UpdateQuotaAllocationAmount(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal) (*models.QuotaAllocation, error)
	GetQuotaAllocation(ctx context.Context, orgID, id uuid.UUID) (*models.QuotaAllocation, error)
	ListQuotaAllocations(ctx context.Context, orgID uuid.UUID, seasonID *uuid.UUID) ([]QuotaAllocationView, error)
	SoftDeleteQuotaAllocation(ctx context.Context, orgID, id uuid.UUID) error

	CreateVesselAllocation(ctx context.Context, orgID uuid.UUID, input CreateVesselAllocationInput) (*models.VesselAllocation, error)
	ListVesselAllocations(ctx context.Context, orgID uuid.UUID, llp string, year int) ([]models.VesselAllocation, error)
	SoftDeleteVesselAllocation(ctx context.Context, orgID, id uuid.UUID) error
}

// CreateQuotaAllocationInput references season, cooperative and species by
// ID; all three must resolve before the grant is written.
type CreateQuotaAllocationInput struct {
	SeasonID      uuid.UUID
	CooperativeID uuid.UUID
	SpeciesID     uuid.UUID
	Amount        decimal.Decimal
}

// CreateVesselAllocationInput grants starting quota to a permit. Duplicate
// (llp, species, year) grants are allowed; the ledger sums them.
type CreateVesselAllocationInput struct {
	LLP           string
	SpeciesCode   enums.SpeciesCode
	Year          int
	AllocationLbs decimal.Decimal
	CreatedBy     *uuid.UUID
}

// QuotaAllocationView decorates a grant with its reference record names for
// the admin listing.
type QuotaAllocationView struct {
	models.QuotaAllocation
	SeasonYear      int    `json:"season_year"`
	CooperativeName string `json:"cooperative_name"`
	SpeciesName     string `json:"species_name"`
}

type service struct {
	repo  Repository
	cache cacheInvalidator
}

// NewService wires the allocation service. cache may be nil; vessel
// allocation writes then skip ledger invalidation.
func NewService(repo Repository, cache cacheInvalidator) Service {
	return &service{repo: repo, cache: cache}
}

func (s *service) CreateQuotaAllocation(ctx context.Context, orgID uuid.UUID, input CreateQuotaAllocationInput) (*models.QuotaAllocation, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Amount must be greater than zero.")
	}
	if err := s.resolveReferences(ctx, orgID, input.SeasonID, input.CooperativeID, input.SpeciesID); err != nil {
		return nil, err
	}

	allocation := &models.QuotaAllocation{
		OrgID:         orgID,
		SeasonID:      input.SeasonID,
		CooperativeID: input.CooperativeID,
		SpeciesID:     input.SpeciesID,
		Amount:        input.Amount,
	}
	if err := s.repo.CreateQuotaAllocation(ctx, allocation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create quota allocation")
	}
	return allocation, nil
}

func (s *service) UpdateQuotaAllocationAmount(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal) (*models.QuotaAllocation, error) {
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Amount must be greater than zero.")
	}
	if err := s.repo.UpdateQuotaAllocationAmount(ctx, orgID, id, amount); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quota allocation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update quota allocation")
	}
	return s.GetQuotaAllocation(ctx, orgID, id)
}

func (s *service) GetQuotaAllocation(ctx context.Context, orgID, id uuid.UUID) (*models.QuotaAllocation, error) {
	allocation, err := s.repo.GetQuotaAllocation(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quota allocation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load quota allocation")
	}
	return allocation, nil
}

func (s *service) ListQuotaAllocations(ctx context.Context, orgID uuid.UUID, seasonID *uuid.UUID) ([]QuotaAllocationView, error) {
	allocations, err := s.repo.ListQuotaAllocations(ctx, orgID, seasonID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list quota allocations")
	}

	views := make([]QuotaAllocationView, 0, len(allocations))
	for _, allocation := range allocations {
		view := QuotaAllocationView{QuotaAllocation: allocation}
		if season, err := s.repo.FindSeason(ctx, orgID, allocation.SeasonID); err == nil {
			view.SeasonYear = season.Year
		}
		if coop, err := s.repo.FindCooperative(ctx, orgID, allocation.CooperativeID); err == nil {
			view.CooperativeName = coop.Name
		}
		if species, err := s.repo.FindSpecies(ctx, allocation.SpeciesID); err == nil {
			view.SpeciesName = species.Name
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) SoftDeleteQuotaAllocation(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.repo.SoftDeleteQuotaAllocation(ctx, orgID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "quota allocation not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete quota allocation")
	}
	return nil
}

func (s *service) CreateVesselAllocation(ctx context.Context, orgID uuid.UUID, input CreateVesselAllocationInput) (*models.VesselAllocation, error) {
	if input.LLP == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "LLP is required.")
	}
	if !input.SpeciesCode.IsTransferable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Species %d is not transferable.", input.SpeciesCode))
	}
	if input.Year < 2000 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Year is required.")
	}
	if !input.AllocationLbs.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Amount must be greater than zero.")
	}
	if _, err := s.repo.FindMemberByLLP(ctx, orgID, input.LLP); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("Permit %s is not a cooperative member.", input.LLP))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to resolve permit")
	}

	allocation := &models.VesselAllocation{
		OrgID:         orgID,
		LLP:           input.LLP,
		SpeciesCode:   input.SpeciesCode,
		Year:          input.Year,
		AllocationLbs: input.AllocationLbs,
		CreatedBy:     input.CreatedBy,
	}
	if err := s.repo.CreateVesselAllocation(ctx, allocation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create vessel allocation")
	}
	s.invalidateLedger(ctx, orgID)
	return allocation, nil
}

func (s *service) ListVesselAllocations(ctx context.Context, orgID uuid.UUID, llp string, year int) ([]models.VesselAllocation, error) {
	allocations, err := s.repo.ListVesselAllocations(ctx, orgID, llp, year)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list vessel allocations")
	}
	return allocations, nil
}

func (s *service) SoftDeleteVesselAllocation(ctx context.Context, orgID, id uuid.UUID) error {
	if err := s.repo.SoftDeleteVesselAllocation(ctx, orgID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vessel allocation not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete vessel allocation")
	}
	s.invalidateLedger(ctx, orgID)
	return nil
}

func (s *service) resolveReferences(ctx context.Context, orgID, seasonID, cooperativeID, speciesID uuid.UUID) error {
	if _, err := s.repo.FindSeason(ctx, orgID, seasonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "Unknown season reference.")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to resolve season")
	}
	if _, err := s.repo.FindCooperative(ctx, orgID, cooperativeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "Unknown cooperative reference.")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to resolve cooperative")
	}
	if _, err := s.repo.FindSpecies(ctx, speciesID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "Unknown species reference.")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to resolve species")
	}
	return nil
}

// Vessel allocation facts flow into the remaining-quota ledger, so every
// write drops the cached rows for the org. Invalidation failure is not a
// write failure.
func (s *service) invalidateLedger(ctx context.Context, orgID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, orgID)
}
