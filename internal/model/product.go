package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the slice of the catalog the engine depends on: price for line
// snapshots and stock for the ledger guard. Catalog CRUD lives elsewhere;
// this backend only reads products and decrements stock through the guarded
// batch operation.
type Product struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code     string          `gorm:"uniqueIndex;not null"`
	Name     string          `gorm:"index;not null"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock    int             `gorm:"not null;default:0"`
	IsActive bool            `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
