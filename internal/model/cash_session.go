package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session status values.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// CashSession is the open-to-close interval during which one terminal's
// drawer is accountable, starting from an opening float. Sessions are
// mutated only by the close operation and never deleted (accounting record).
//
// "At most one open session per terminal" is enforced by the open flow and
// backed by a partial unique index on (terminal_id) WHERE status = 'open';
// readers still tolerate historical anomalies (see SessionRepository.FindActive).
type CashSession struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TerminalID uuid.UUID  `gorm:"type:uuid;not null;index"`
	StaffID    *uuid.UUID `gorm:"type:uuid"`
	StaffName  string     `gorm:"not null"`

	OpeningFund decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status      string          `gorm:"type:varchar(10);not null;default:'open';index"`

	OpenedAt time.Time
	ClosedAt *time.Time

	Terminal *Terminal `gorm:"foreignKey:TerminalID"`
}
