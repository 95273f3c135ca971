package allocations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
)

// Repository manages coop-level quota allocations, per-permit vessel
// allocation facts, and the reference lookups their writes must resolve.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateQuotaAllocation(ctx context.Context, allocation *models.QuotaAllocation) error
	UpdateQuotaAllocationAmount(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal) error
	GetQuotaAllocation(ctx context.Context, orgID, id uuid.UUID) (*models.QuotaAllocation, error)
	ListQuotaAllocations(ctx context.Context, orgID uuid.UUID, seasonID *uuid.UUID) ([]models.QuotaAllocation, error)
	SoftDeleteQuotaAllocation(ctx context.Context, orgID, id uuid.UUID) error

	CreateVesselAllocation(ctx context.Context, allocation *models.VesselAllocation) error
	GetVesselAllocation(ctx context.Context, orgID, id uuid.UUID) (*models.VesselAllocation, error)
	ListVesselAllocations(ctx context.Context, orgID uuid.UUID, llp string, year int) ([]models.VesselAllocation, error)
	SoftDeleteVesselAllocation(ctx context.Context, orgID, id uuid.UUID) error

	FindSeason(ctx context.Context, orgID, id uuid.UUID) (*models.Season, error)
	FindCooperative(ctx context.Context, orgID, id uuid.UUID) (*models.Cooperative, error)
	FindSpecies(ctx context.Context, id uuid.UUID) (*models.Species, error)
	FindMemberByLLP(ctx context.Context, orgID uuid.UUID, llp string) (*models.CoopMember, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an allocation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateQuotaAllocation(ctx context.Context, allocation *models.QuotaAllocation) error {
	return r.db.WithContext(ctx).Create(allocation).Error
}

func (r *repository) UpdateQuotaAllocationAmount(ctx context.Context, orgID, id uuid.UUID, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.QuotaAllocation{}).
		Where("org_id = ? AND id = ? AND is_deleted = ?", orgID, id, false).
		Update("amount", amount)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) GetQuotaAllocation(ctx context.Context, orgID, id uuid.UUID) (*models.QuotaAllocation, error) {
	var allocation models.QuotaAllocation
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ? AND is_deleted = ?", orgID, id, false).
		First(&allocation).Error; err != nil {
		return nil, err
	}
	return &allocation, nil
}

func (r *repository) ListQuotaAllocations(ctx context.Context, orgID uuid.UUID, seasonID *uuid.UUID) ([]models.QuotaAllocation, error) {
	query := r.db.WithContext(ctx).
		Where("org_id = ? AND is_deleted = ?", orgID, false)
	if seasonID != nil {
		query = query.Where("season_id = ?", *seasonID)
	}

	var allocations []models.QuotaAllocation
	if err := query.Order("created_at ASC").Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *repository) SoftDeleteQuotaAllocation(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.QuotaAllocation{}).
		Where("org_id = ? AND id = ? AND is_deleted = ?", orgID, id, false).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateVesselAllocation(ctx context.Context, allocation *models.VesselAllocation) error {
	return r.db.WithContext(ctx).Create(allocation).Error
}

func (r *repository) GetVesselAllocation(ctx context.Context, orgID, id uuid.UUID) (*models.VesselAllocation, error) {
	var allocation models.VesselAllocation
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ? AND is_deleted = ?", orgID, id, false).
		First(&allocation).Error; err != nil {
		return nil, err
	}
	return &allocation, nil
}

func (r *repository) ListVesselAllocations(ctx context.Context, orgID uuid.UUID, llp string, year int) ([]models.VesselAllocation, error) {
	query := r.db.WithContext(ctx).
		Where("org_id = ? AND is_deleted = ?", orgID, false)
	if llp != "" {
		query = query.Where("llp = ?", llp)
	}
	if year != 0 {
		query = query.Where("year = ?", year)
	}

	var allocations []models.VesselAllocation
	if err := query.Order("llp ASC, species_code ASC").Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *repository) SoftDeleteVesselAllocation(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.VesselAllocation{}).
		Where("org_id = ? AND id = ? AND is_deleted = ?", orgID, id, false).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindSeason(ctx context.Context, orgID, id uuid.UUID) (*models.Season, error) {
	var season models.Season
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&season).Error; err != nil {
		return nil, err
	}
	return &season, nil
}

func (r *repository) FindCooperative(ctx context.Context, orgID, id uuid.UUID) (*models.Cooperative, error) {
	var coop models.Cooperative
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&coop).Error; err != nil {
		return nil, err
	}
	return &coop, nil
}

func (r *repository) FindSpecies(ctx context.Context, id uuid.UUID) (*models.Species, error) {
	var species models.Species
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&species).Error; err != nil {
		return nil, err
	}
	return &species, nil
}

func (r *repository) FindMemberByLLP(ctx context.Context, orgID uuid.UUID, llp string) (*models.CoopMember, error) {
	var member models.CoopMember
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND llp = ?", orgID, llp).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

