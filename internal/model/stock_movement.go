package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records every stock change on a product. Created inside the
// sale transaction for each decremented line. Movements are immutable —
// never updated or deleted.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind      string    `gorm:"not null"` // "sale" | "adjustment"
	Quantity  int       `gorm:"not null"` // positive = in, negative = out
	StockPrev int       `gorm:"not null"`
	StockNext int       `gorm:"not null"`
	Reason    string
	SaleID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
