package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
)

// VesselAllocation is the starting quota granted to a permit for a species
// and year. Duplicate (llp, species, year) rows are legal grant events; the
// ledger sums them.
type VesselAllocation struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID         uuid.UUID         `gorm:"column:org_id;type:uuid;not null;index"`
	LLP           string            `gorm:"column:llp;not null;index:idx_alloc_llp_species_year"`
	SpeciesCode   enums.SpeciesCode `gorm:"column:species_code;not null;index:idx_alloc_llp_species_year"`
	Year          int               `gorm:"column:year;not null;index:idx_alloc_llp_species_year"`
	AllocationLbs decimal.Decimal   `gorm:"column:allocation_lbs;type:numeric(14,2);not null"`
	IsDeleted     bool              `gorm:"column:is_deleted;not null;default:false"`
	CreatedBy     *uuid.UUID        `gorm:"column:created_by;type:uuid"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// QuotaAllocation is the cooperative-level grant managed from the admin
// screens, keyed by season, cooperative and species reference records.
type QuotaAllocation struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID         uuid.UUID       `gorm:"column:org_id;type:uuid;not null;index"`
	SeasonID      uuid.UUID       `gorm:"column:season_id;type:uuid;not null"`
	CooperativeID uuid.UUID       `gorm:"column:cooperative_id;type:uuid;not null"`
	SpeciesID     uuid.UUID       `gorm:"column:species_id;type:uuid;not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	IsDeleted     bool            `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// QuotaTransfer is the single mutation path for moving quota between
// permits. Append-only; soft delete is the only removal mechanism, so the
// audit trail survives.
type QuotaTransfer struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID        uuid.UUID         `gorm:"column:org_id;type:uuid;not null;index"`
	FromLLP      string            `gorm:"column:from_llp;not null;index"`
	ToLLP        string            `gorm:"column:to_llp;not null;index"`
	SpeciesCode  enums.SpeciesCode `gorm:"column:species_code;not null"`
	Year         int               `gorm:"column:year;not null;index"`
	Pounds       decimal.Decimal   `gorm:"column:pounds;type:numeric(14,2);not null"`
	TransferDate time.Time         `gorm:"column:transfer_date;type:date;not null"`
	Notes        *string           `gorm:"column:notes"`
	CreatedBy    uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	IsDeleted    bool              `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// Harvest is a landed-catch fact, entered manually or ingested from eFish
// uploads. Append-only with soft delete.
type Harvest struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID         uuid.UUID         `gorm:"column:org_id;type:uuid;not null;index"`
	LLP           string            `gorm:"column:llp;not null;index:idx_harvest_llp_species_year"`
	SpeciesCode   enums.SpeciesCode `gorm:"column:species_code;not null;index:idx_harvest_llp_species_year"`
	Year          int               `gorm:"column:year;not null;index:idx_harvest_llp_species_year"`
	HarvestDate   time.Time         `gorm:"column:harvest_date;type:date;not null"`
	Pounds        decimal.Decimal   `gorm:"column:pounds;type:numeric(14,2);not null"`
	ProcessorCode *string           `gorm:"column:processor_code"`
	ReportNumber  *string           `gorm:"column:report_number"`
	SourceFile    *string           `gorm:"column:source_file"`
	IsDeleted     bool              `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}
