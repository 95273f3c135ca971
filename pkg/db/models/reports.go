package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountBalance is a cooperative-level balance snapshot ingested from
// eLandings account statements.
type AccountBalance struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID          uuid.UUID        `gorm:"column:org_id;type:uuid;not null;index"`
	CoopCode       string           `gorm:"column:coop_code;not null"`
	SpeciesGroup   string           `gorm:"column:species_group;not null"`
	BalanceDate    time.Time        `gorm:"column:balance_date;type:date;not null"`
	InitialQuota   decimal.Decimal  `gorm:"column:initial_quota;type:numeric(14,2);not null"`
	TransfersIn    decimal.Decimal  `gorm:"column:transfers_in;type:numeric(14,2);not null"`
	TransfersOut   decimal.Decimal  `gorm:"column:transfers_out;type:numeric(14,2);not null"`
	TotalQuota     decimal.Decimal  `gorm:"column:total_quota;type:numeric(14,2);not null"`
	TotalCatch     decimal.Decimal  `gorm:"column:total_catch;type:numeric(14,2);not null"`
	RemainingQuota decimal.Decimal  `gorm:"column:remaining_quota;type:numeric(14,2);not null"`
	PercentTaken   *decimal.Decimal `gorm:"column:percent_taken;type:numeric(6,2)"`
	AccountName    *string          `gorm:"column:account_name"`
	SourceFile     *string          `gorm:"column:source_file"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// AccountDetail is a per-landing catch activity row from an eLandings
// account detail export.
type AccountDetail struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID             uuid.UUID       `gorm:"column:org_id;type:uuid;not null;index"`
	CatchActivityDate time.Time       `gorm:"column:catch_activity_date;type:date;not null"`
	VesselName        string          `gorm:"column:vessel_name"`
	ADFG              *string         `gorm:"column:adfg"`
	SpeciesName       string          `gorm:"column:species_name"`
	SpeciesCode       int             `gorm:"column:species_code"`
	WeightPosted      decimal.Decimal `gorm:"column:weight_posted;type:numeric(14,2);not null"`
	ProcessorPermit   *string         `gorm:"column:processor_permit"`
	LandingDate       *time.Time      `gorm:"column:landing_date;type:date"`
	ReportNumber      *string         `gorm:"column:report_number"`
	GearCode          *string         `gorm:"column:gear_code"`
	ReportingArea     *string         `gorm:"column:reporting_area"`
	SourceFile        *string         `gorm:"column:source_file"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
}
