package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
)

// BycatchAlert is a hotspot report from a vessel operator. The top-level
// coordinates and amount mirror the first haul for list rendering; hauls
// carry the full detail.
type BycatchAlert struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID                uuid.UUID         `gorm:"column:org_id;type:uuid;not null;index"`
	ReportedByLLP        string            `gorm:"column:reported_by_llp;not null"`
	SpeciesCode          enums.SpeciesCode `gorm:"column:species_code;not null"`
	Latitude             float64           `gorm:"column:latitude;not null"`
	Longitude            float64           `gorm:"column:longitude;not null"`
	Amount               decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	Unit                 enums.AmountUnit  `gorm:"column:unit;type:text;not null;default:'lbs'"`
	Details              *string           `gorm:"column:details"`
	Status               enums.AlertStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedBy            uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	SharedAt             *time.Time        `gorm:"column:shared_at"`
	SharedBy             *uuid.UUID        `gorm:"column:shared_by;type:uuid"`
	SharedRecipientCount int               `gorm:"column:shared_recipient_count;not null;default:0"`
	IsDeleted            bool              `gorm:"column:is_deleted;not null;default:false"`
	Hauls                []BycatchHaul     `gorm:"foreignKey:AlertID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// BycatchHaul is one set/retrieval within an alert.
type BycatchHaul struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AlertID             uuid.UUID       `gorm:"column:alert_id;type:uuid;not null;index"`
	HaulNumber          int             `gorm:"column:haul_number;not null"`
	LocationName        *string         `gorm:"column:location_name"`
	HighSalmonEncounter bool            `gorm:"column:high_salmon_encounter;not null;default:false"`
	SetDate             time.Time       `gorm:"column:set_date;type:date;not null"`
	SetTime             *string         `gorm:"column:set_time"`
	SetLatitude         float64         `gorm:"column:set_latitude;not null"`
	SetLongitude        float64         `gorm:"column:set_longitude;not null"`
	RetrievalDate       *time.Time      `gorm:"column:retrieval_date;type:date"`
	RetrievalTime       *string         `gorm:"column:retrieval_time"`
	RetrievalLatitude   *float64        `gorm:"column:retrieval_latitude"`
	RetrievalLongitude  *float64        `gorm:"column:retrieval_longitude"`
	BottomDepth         *float64        `gorm:"column:bottom_depth"`
	SeaDepth            *float64        `gorm:"column:sea_depth"`
	Amount              decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// AlertDelivery logs each fleet broadcast attempt for a shared alert.
type AlertDelivery struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AlertID        uuid.UUID `gorm:"column:alert_id;type:uuid;not null;index"`
	RecipientCount int       `gorm:"column:recipient_count;not null"`
	Status         string    `gorm:"column:status;not null"`
	ErrorMessage   *string   `gorm:"column:error_message"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
