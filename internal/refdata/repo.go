package refdata

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
)

// Repository covers the admin-managed reference tables: cooperatives,
// seasons, species, vessels and coop members.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCooperative(ctx context.Context, coop *models.Cooperative) error
	ListCooperatives(ctx context.Context, orgID uuid.UUID) ([]models.Cooperative, error)
	SaveCooperative(ctx context.Context, coop *models.Cooperative) error
	GetCooperative(ctx context.Context, orgID, id uuid.UUID) (*models.Cooperative, error)

	CreateSeason(ctx context.Context, season *models.Season) error
	ListSeasons(ctx context.Context, orgID uuid.UUID) ([]models.Season, error)
	GetSeason(ctx context.Context, orgID, id uuid.UUID) (*models.Season, error)
	DeactivateSeasons(ctx context.Context, orgID uuid.UUID) error
	SaveSeason(ctx context.Context, season *models.Season) error

	CreateSpecies(ctx context.Context, species *models.Species) error
	ListSpecies(ctx context.Context) ([]models.Species, error)
	FindSpeciesByCode(ctx context.Context, code int) (*models.Species, error)
	SaveSpecies(ctx context.Context, species *models.Species) error

	CreateVessel(ctx context.Context, vessel *models.Vessel) error
	ListVessels(ctx context.Context, orgID uuid.UUID) ([]models.Vessel, error)
	GetVessel(ctx context.Context, orgID, id uuid.UUID) (*models.Vessel, error)
	SaveVessel(ctx context.Context, vessel *models.Vessel) error

	CreateMember(ctx context.Context, member *models.CoopMember) error
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.CoopMember, error)
	GetMember(ctx context.Context, orgID, id uuid.UUID) (*models.CoopMember, error)
	FindMemberByLLP(ctx context.Context, orgID uuid.UUID, llp string) (*models.CoopMember, error)
	SaveMember(ctx context.Context, member *models.CoopMember) error
	DeleteMember(ctx context.Context, orgID, id uuid.UUID) error
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

func (r *repository) CreateCooperative(ctx context.Context, coop *models.Cooperative) error {
	return r.db.WithContext(ctx).Create(coop).Error
}

func (r *repository) ListCooperatives(ctx context.Context, orgID uuid.UUID) ([]models.Cooperative, error) {
	var coops []models.Cooperative
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("code ASC").
		Find(&coops).Error; err != nil {
		return nil, err
	}
	return coops, nil
}

func (r *repository) SaveCooperative(ctx context.Context, coop *models.Cooperative) error {
	return r.db.WithContext(ctx).Save(coop).Error
}

func (r *repository) GetCooperative(ctx context.Context, orgID, id uuid.UUID) (*models.Cooperative, error) {
	var coop models.Cooperative
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&coop).Error; err != nil {
		return nil, err
	}
	return &coop, nil
}

func (r *repository) CreateSeason(ctx context.Context, season *models.Season) error {
	return r.db.WithContext(ctx).Create(season).Error
}

func (r *repository) ListSeasons(ctx context.Context, orgID uuid.UUID) ([]models.Season, error) {
	var seasons []models.Season
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("year DESC").
		Find(&seasons).Error; err != nil {
		return nil, err
	}
	return seasons, nil
}

func (r *repository) GetSeason(ctx context.Context, orgID, id uuid.UUID) (*models.Season, error) {
	var season models.Season
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&season).Error; err != nil {
		return nil, err
	}
	return &season, nil
}

func (r *repository) DeactivateSeasons(ctx context.Context, orgID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Season{}).
		Where("org_id = ? AND is_active = ?", orgID, true).
		Update("is_active", false).Error
}

func (r *repository) SaveSeason(ctx context.Context, season *models.Season) error {
	return r.db.WithContext(ctx).Save(season).Error
}

func (r *repository) CreateSpecies(ctx context.Context, species *models.Species) error {
	return r.db.WithContext(ctx).Create(species).Error
}

func (r *repository) ListSpecies(ctx context.Context) ([]models.Species, error) {
	var species []models.Species
	if err := r.db.WithContext(ctx).
		Order("code ASC").
		Find(&species).Error; err != nil {
		return nil, err
	}
	return species, nil
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

func (r *repository) SaveSpecies(ctx context.Context, species *models.Species) error {
	return r.db.WithContext(ctx).Save(species).Error
}

func (r *repository) CreateVessel(ctx context.Context, vessel *models.Vessel) error {
	return r.db.WithContext(ctx).Create(vessel).Error
}

func (r *repository) ListVessels(ctx context.Context, orgID uuid.UUID) ([]models.Vessel, error) {
	var vessels []models.Vessel
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("vessel_name ASC").
		Find(&vessels).Error; err != nil {
		return nil, err
	}
	return vessels, nil
}

func (r *repository) GetVessel(ctx context.Context, orgID, id uuid.UUID) (*models.Vessel, error) {
	var vessel models.Vessel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&vessel).Error; err != nil {
		return nil, err
	}
	return &vessel, nil
}

func (r *repository) SaveVessel(ctx context.Context, vessel *models.Vessel) error {
	return r.db.WithContext(ctx).Save(vessel).Error
}

func (r *repository) CreateMember(ctx context.Context, member *models.CoopMember) error {
	return r.db.WithContext(ctx).Create(member).Error
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

func (r *repository) GetMember(ctx context.Context, orgID, id uuid.UUID) (*models.CoopMember, error) {
	var member models.CoopMember
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
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

func (r *repository) SaveMember(ctx context.Context, member *models.CoopMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *repository) DeleteMember(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&models.CoopMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
