package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fishermenfirst/fleetquota-backend/pkg/enums"
)

// User is an operator account. Vessel owners are linked to their permit via
// LLP; admins and managers have no permit binding.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID        uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index"`
	Email        string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         enums.Role `gorm:"column:role;type:text;not null;default:'vessel_owner'"`
	LLP          *string    `gorm:"column:llp"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
