package model

import (
	"time"

	"github.com/google/uuid"
)

// Terminal is the durable identity of a physical point-of-sale device.
// Registration always creates a new row, even when the display name repeats:
// identity is per-device, not per-name, so two devices configured with the
// same label never collide on the same session or stock lineage.
//
// At most one active terminal has IsMain = true store-wide. Terminals with
// sales history are soft-deactivated, never hard-deleted.
type Terminal struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string    `gorm:"not null;index"`
	Location *string
	IsMain   bool `gorm:"not null;default:false"`
	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
