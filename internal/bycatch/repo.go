package bycatch

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, alert *models.BycatchAlert) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.BycatchAlert, error)
	List(ctx context.Context, orgID uuid.UUID, status *enums.AlertStatus) ([]models.BycatchAlert, error)
	CountPending(ctx context.Context, orgID uuid.UUID) (int64, error)
	Save(ctx context.Context, alert *models.BycatchAlert) error
	CreateDelivery(ctx context.Context, delivery *models.AlertDelivery) error

	FindSpeciesByCode(ctx context.Context, code int) (*models.Species, error)
	FindMemberByLLP(ctx context.Context, orgID uuid.UUID, llp string) (*models.CoopMember, error)
	CountFleetRecipients(ctx context.Context, orgID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, alert *models.BycatchAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.BycatchAlert, error) {
	var alert models.BycatchAlert
	if err := r.db.WithContext(ctx).
		Preload("Hauls", func(db *gorm.DB) *gorm.DB {
			return db.Order("haul_number ASC")
		}).
		Where("org_id = ? AND id = ? AND is_deleted = ?", orgID, id, false).
		First(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, status *enums.AlertStatus) ([]models.BycatchAlert, error) {
	query := r.db.WithContext(ctx).
		Preload("Hauls", func(db *gorm.DB) *gorm.DB {
			return db.Order("haul_number ASC")
		}).
		Where("org_id = ? AND is_deleted = ?", orgID, false)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var alerts []models.BycatchAlert
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repository) CountPending(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BycatchAlert{}).
		Where("org_id = ? AND status = ? AND is_deleted = ?", orgID, enums.AlertStatusPending, false).
		Count(&count).Error
	return count, err
}

func (r *repository) Save(ctx context.Context, alert *models.BycatchAlert) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: false}).
		Omit("Hauls").
		Save(alert).Error
}

func (r *repository) CreateDelivery(ctx context.Context, delivery *models.AlertDelivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *repository) FindSpeciesByCode(ctx context.Context, code int) (*models.Species, error) {
	var species models.Species
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
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

// CountFleetRecipients counts members reachable by a fleet broadcast.
func (r *repository) CountFleetRecipients(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CoopMember{}).
		Where("org_id = ? AND email IS NOT NULL AND email <> ''", orgID).
		Count(&count).Error
	return count, err
}
