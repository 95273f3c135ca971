package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
)

// Cooperative is a fishing cooperative reference record.
type Cooperative struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;index"`
	Code      string    `gorm:"column:code;not null;uniqueIndex:idx_coop_org_code"`
	Name      string    `gorm:"column:cooperative_name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Season is a fishing year reference record.
type Season struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;index"`
	Year      int       `gorm:"column:year;not null;uniqueIndex:idx_season_org_year"`
	IsActive  bool      `gorm:"column:is_active;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Species is the species reference table. Target species carry quota; PSC
// species appear only in bycatch reporting and carry a per-species unit.
type Species struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code         int              `gorm:"column:code;not null;uniqueIndex"`
	Name         string           `gorm:"column:species_name;not null"`
	Abbreviation string           `gorm:"column:abbreviation;not null"`
	IsPSC        bool             `gorm:"column:is_psc;not null;default:false"`
	Unit         enums.AmountUnit `gorm:"column:unit;type:text;not null;default:'lbs'"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// Vessel is a fishing vessel reference record.
type Vessel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:vessel_name;not null"`
	ADFG      *string   `gorm:"column:adfg"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CoopMember maps a limited-license permit to its vessel and cooperative.
// The LLP is the unit of quota ownership; the coop binding is a denormalized
// lookup that may change over time.
type CoopMember struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID      uuid.UUID `gorm:"column:org_id;type:uuid;not null;index"`
	LLP        string    `gorm:"column:llp;not null;uniqueIndex:idx_member_org_llp"`
	VesselName string    `gorm:"column:vessel_name"`
	CoopCode   string    `gorm:"column:coop_code"`
	Email      *string   `gorm:"column:email"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
