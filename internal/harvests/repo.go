package harvests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
	"github.com/fishermenfirst/fleetquota-backend/pkg/pagination"
)

// ListFilter narrows harvest queries. Zero values mean "any". Limit and
// Cursor page the result newest first.
type ListFilter struct {
	LLP         string
	SpeciesCode enums.SpeciesCode
	Year        int
	From        *time.Time
	To          *time.Time
	Limit       int
	Cursor      *pagination.Cursor
}

// DuplicateKey identifies a harvest fact for import dedupe. Two rows with
// the same key are the same landing regardless of which file carried them.
type DuplicateKey struct {
	LLP         string
	SpeciesCode enums.SpeciesCode
	HarvestDate time.Time
	Pounds      decimal.Decimal
}

// String renders the key in its canonical map form.
func (k DuplicateKey) String() string {
	return fmt.Sprintf("%s|%d|%s|%s",
		k.LLP, k.SpeciesCode, k.HarvestDate.Format("2006-01-02"), k.Pounds.StringFixed(2))
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, harvest *models.Harvest) error
	CreateBatch(ctx context.Context, harvests []models.Harvest) error
	List(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]models.Harvest, *pagination.Cursor, error)
	FindExisting(ctx context.Context, orgID uuid.UUID, keys []DuplicateKey) (map[string]struct{}, error)
	SoftDelete(ctx context.Context, orgID, id uuid.UUID) error
	ListMemberLLPs(ctx context.Context, orgID uuid.UUID) (map[string]struct{}, error)
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

func (r *repository) Create(ctx context.Context, harvest *models.Harvest) error {
	return r.db.WithContext(ctx).Create(harvest).Error
}

func (r *repository) CreateBatch(ctx context.Context, harvests []models.Harvest) error {
	if len(harvests) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(harvests, 200).Error
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]models.Harvest, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(filter.Limit)
	normalized := pagination.NormalizeLimit(filter.Limit)

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
	if filter.From != nil {
		query = query.Where("harvest_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("harvest_date <= ?", *filter.To)
	}
	if filter.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	var harvests []models.Harvest
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&harvests).Error; err != nil {
		return nil, nil, err
	}

	if len(harvests) > normalized {
		next := harvests[normalized]
		harvests = harvests[:normalized]
		return harvests, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return harvests, nil, nil
}

// FindExisting returns the subset of keys already present as non-deleted
// harvest rows. One tuple IN query, not one probe per row.
func (r *repository) FindExisting(ctx context.Context, orgID uuid.UUID, keys []DuplicateKey) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	if len(keys) == 0 {
		return found, nil
	}

	tuples := make([][]interface{}, 0, len(keys))
	for _, key := range keys {
		tuples = append(tuples, []interface{}{
			key.LLP, int(key.SpeciesCode), key.HarvestDate.Format("2006-01-02"),
		})
	}

	var existing []models.Harvest
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND is_deleted = ?", orgID, false).
		Where("(llp, species_code, harvest_date) IN ?", tuples).
		Find(&existing).Error; err != nil {
		return nil, err
	}

	byKey := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		key := DuplicateKey{
			LLP:         row.LLP,
			SpeciesCode: row.SpeciesCode,
			HarvestDate: row.HarvestDate,
			Pounds:      row.Pounds,
		}
		byKey[key.String()] = struct{}{}
	}
	for _, key := range keys {
		if _, ok := byKey[key.String()]; ok {
			found[key.String()] = struct{}{}
		}
	}
	return found, nil
}

func (r *repository) SoftDelete(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Harvest{}).
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

func (r *repository) ListMemberLLPs(ctx context.Context, orgID uuid.UUID) (map[string]struct{}, error) {
	var members []models.CoopMember
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	llps := make(map[string]struct{}, len(members))
	for _, member := range members {
		llps[member.LLP] = struct{}{}
	}
	return llps, nil
}
