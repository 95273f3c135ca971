package transfers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
)

// ListFilter narrows transfer history queries. Zero values mean "any".
type ListFilter struct {
	LLP         string
	SpeciesCode enums.SpeciesCode
	Year        int
}

// Repository manages persistence for quota transfer facts. Transfers are
// append-only; soft delete is the only removal path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transfer *models.QuotaTransfer) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.QuotaTransfer, error)
	List(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]models.QuotaTransfer, error)
	SoftDelete(ctx context.Context, orgID, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transfer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, transfer *models.QuotaTransfer) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}

func (r *repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.QuotaTransfer, error) {
	var transfer models.QuotaTransfer
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ? AND is_deleted = ?", orgID, id, false).
		First(&transfer).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]models.QuotaTransfer, error) {
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
	if err := query.Order("transfer_date DESC, created_at DESC").Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

func (r *repository) SoftDelete(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.QuotaTransfer{}).
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
