package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
)

// Filter narrows fact queries to a ledger partition. Zero values mean "any";
// Year is always required by callers.
type Filter struct {
	LLP         string
	SpeciesCode enums.SpeciesCode
	Year        int
}

// Repository fetches the fact rows the ledger aggregates. Soft-deleted rows
// never leave this layer.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListAllocations(ctx context.Context, orgID uuid.UUID, filter Filter) ([]models.VesselAllocation, error)
	ListTransfers(ctx context.Context, orgID uuid.UUID, filter Filter) ([]models.QuotaTransfer, error)
	ListHarvests(ctx context.Context, orgID uuid.UUID, filter Filter) ([]models.Harvest, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.CoopMember, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListAllocations(ctx context.Context, orgID uuid.UUID, filter Filter) ([]models.VesselAllocation, error) {
	query := r.db.WithContext(ctx).
		Where("org_id = ? AND is_deleted = ?", orgID, false)
	if filter.LLP != "" {
		query = query.Where("llp = ?", filter.LLP)
	}
	if filter.SpeciesCode != 0 {
		query = query.Where("species_code = ?", filter.SpeciesCode)
	}
	if filter.Year != 0 {
		query = query.Where("year = ?", filter.Year)
	}

	var allocations []models.VesselAllocation
	if err := query.Order("created_at ASC").Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *repository) ListTransfers(ctx context.Context, orgID uuid.UUID, filter Filter) ([]models.QuotaTransfer, error) {
	query := r.db.WithContext(ctx).
		Where("org_id = ? AND is_deleted = ?", orgID, false)
	if filter.LLP != "" {
		query = query.Where("from_llp = ? OR to_llp = ?", filter.LLP, filter.LLP)
	}
	if filter.SpeciesCode != 0 {
		query = query.Where("species_code = ?", filter.SpeciesCode)
	}
	if filter.Year != 0 {
		query = query.Where("year = ?", filter.Year)
	}

	var transfers []models.QuotaTransfer
	if err := query.Order("created_at ASC").Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

func (r *repository) ListHarvests(ctx context.Context, orgID uuid.UUID, filter Filter) ([]models.Harvest, error) {
	query := r.db.WithContext(ctx).
		Where("org_id = ? AND is_deleted = ?", orgID, false)
	if filter.LLP != "" {
		query = query.Where("llp = ?", filter.LLP)
	}
	if filter.SpeciesCode != 0 {
		query = query.Where("species_code = ?", filter.SpeciesCode)
	}
	if filter.Year != 0 {
		query = query.Where("year = ?", filter.Year)
	}

	var harvests []models.Harvest
	if err := query.Order("harvest_date ASC").Find(&harvests).Error; err != nil {
		return nil, err
	}
	return harvests, nil
}

func (r *repository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.CoopMember, error) {
	var members []models.CoopMember
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("llp ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
