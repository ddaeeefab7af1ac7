package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods. ForeignCash is the only method that carries the
// (AmountForeign, ExchangeRate) pair; the sale validator enforces that shape
// at write time so reconciliation arithmetic never sees zero-defaulted rates.
const (
	PayCash        = "cash"
	PayCard        = "card"
	PayTransfer    = "transfer"
	PayForeignCash = "foreign_cash"
)

// Sale is a completed sale attributed to a terminal and a cash session.
// It is created atomically with its lines and the stock decrement, and is
// immutable afterward.
type Sale struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TicketNo   int64     `gorm:"uniqueIndex;not null"`
	TerminalID uuid.UUID `gorm:"type:uuid;not null;index"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index"`
	StaffID    uuid.UUID `gorm:"type:uuid;not null"`

	// Total is always expressed in the store currency.
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null;index"`

	// Foreign-cash sales only: amount tendered in the secondary currency and
	// the exchange rate applied at sale time.
	AmountForeign *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExchangeRate  *decimal.Decimal `gorm:"type:decimal(12,4)"`

	CreatedAt time.Time `gorm:"index"`

	Lines    []SaleLine `gorm:"foreignKey:SaleID"`
	Terminal *Terminal  `gorm:"foreignKey:TerminalID"`
}

// SaleLine snapshots the product name and unit price at sale time. Snapshots
// are intentional: historical sales must not change when a product is later
// edited or deleted.
type SaleLine struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`

	ProductName string          `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity    int             `gorm:"not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
