package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fishermenfirst/fleetquota-backend/pkg/db/models"
)

// BalanceFilter narrows account balance queries. Zero values mean "any".
type BalanceFilter struct {
	CoopCode     string
	SpeciesGroup string
	From         *time.Time
	To           *time.Time
}

// DetailFilter narrows account detail queries.
type DetailFilter struct {
	VesselName  string
	SpeciesCode int
	From        *time.Time
	To          *time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBalances(ctx context.Context, balances []models.AccountBalance) error
	BalancesExist(ctx context.Context, orgID uuid.UUID, balanceDate time.Time, coopCodes []string) ([]string, error)
	ListBalances(ctx context.Context, orgID uuid.UUID, filter BalanceFilter) ([]models.AccountBalance, error)
	LatestBalanceDate(ctx context.Context, orgID uuid.UUID) (*time.Time, error)
	CreateDetails(ctx context.Context, details []models.AccountDetail) error
	ListDetails(ctx context.Context, orgID uuid.UUID, filter DetailFilter) ([]models.AccountDetail, error)
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

func (r *repository) CreateBalances(ctx context.Context, balances []models.AccountBalance) error {
	if len(balances) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(balances, 200).Error
}

// BalancesExist returns the subset of coop codes that already have a
// balance snapshot for the given date.
func (r *repository) BalancesExist(ctx context.Context, orgID uuid.UUID, balanceDate time.Time, coopCodes []string) ([]string, error) {
	if len(coopCodes) == 0 {
		return nil, nil
	}
	var existing []models.AccountBalance
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND balance_date = ? AND coop_code IN ?",
			orgID, balanceDate.Format("2006-01-02"), coopCodes).
		Find(&existing).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		seen[row.CoopCode] = struct{}{}
	}
	var found []string
	for _, code := range coopCodes {
		if _, ok := seen[code]; ok {
			found = append(found, code)
		}
	}
	return found, nil
}

func (r *repository) ListBalances(ctx context.Context, orgID uuid.UUID, filter BalanceFilter) ([]models.AccountBalance, error) {
	query := r.db.WithContext(ctx).Where("org_id = ?", orgID)
	if filter.CoopCode != "" {
		query = query.Where("coop_code = ?", filter.CoopCode)
	}
	if filter.SpeciesGroup != "" {
		query = query.Where("species_group = ?", filter.SpeciesGroup)
	}
	if filter.From != nil {
		query = query.Where("balance_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("balance_date <= ?", *filter.To)
	}

	var balances []models.AccountBalance
	if err := query.Order("balance_date DESC, coop_code ASC").Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

func (r *repository) LatestBalanceDate(ctx context.Context, orgID uuid.UUID) (*time.Time, error) {
	var balance models.AccountBalance
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("balance_date DESC").
		First(&balance).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	date := balance.BalanceDate
	return &date, nil
}

func (r *repository) CreateDetails(ctx context.Context, details []models.AccountDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(details, 200).Error
}

func (r *repository) ListDetails(ctx context.Context, orgID uuid.UUID, filter DetailFilter) ([]models.AccountDetail, error) {
	query := r.db.WithContext(ctx).Where("org_id = ?", orgID)
	if filter.VesselName != "" {
		query = query.Where("vessel_name = ?", filter.VesselName)
	}
	if filter.SpeciesCode != 0 {
		query = query.Where("species_code = ?", filter.SpeciesCode)
	}
	if filter.From != nil {
		query = query.Where("catch_activity_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("catch_activity_date <= ?", *filter.To)
	}

	var details []models.AccountDetail
	if err := query.Order("catch_activity_date DESC, vessel_name ASC").Find(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}
