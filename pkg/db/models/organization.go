package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the multi-tenant boundary; every fact row carries an org id.
type Organization struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
