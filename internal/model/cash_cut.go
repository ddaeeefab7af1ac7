package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cut types.
const (
	CutShift = "shift"
	CutDay   = "day"
)

// CashCut is the reconciliation record produced at session or day close,
// comparing expected against counted cash in both currencies. Rows are
// append-only: created once at close time, never updated.
//
// Invariant: Difference = ActualCash - ExpectedCash (same for the foreign
// triple); both are computed at creation, never stored inconsistently.
type CashCut struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CutType    string     `gorm:"type:varchar(10);not null;index"`
	TerminalID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SessionID  *uuid.UUID `gorm:"type:uuid"` // nil for day cuts

	StartTime time.Time `gorm:"not null"`
	EndTime   time.Time `gorm:"not null;index"`

	SalesCount    int             `gorm:"not null"`
	SalesTotal    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CashTotal     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CardTotal     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TransferTotal decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	OpeningFund decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	// Store-currency triple.
	ExpectedCash decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ActualCash   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Difference   decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	// Secondary-currency triple.
	ExpectedForeign   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ActualForeign     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	DifferenceForeign decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	StaffName string `gorm:"not null"`
	Notes     *string

	CreatedAt time.Time

	Terminal *Terminal `gorm:"foreignKey:TerminalID"`
}
