package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit event types. Exactly one entry is produced per session open, session
// close, and day close.
const (
	AuditSessionOpened = "session_opened"
	AuditSessionClosed = "session_closed"
	AuditDayClosed     = "day_closed"
	AuditTerminalEvent = "terminal_event"
)

// Audit delivery states.
const (
	DeliveryPending   = "pending"
	DeliveryDelivered = "delivered"
	DeliveryError     = "error"
)

// AuditDelivery is the local outbox row for one audit entry bound for the
// external sink. The sink owns the audit trail; this table only tracks
// delivery state so failed posts can be retried with backoff and parked in
// the DLQ once retries are exhausted.
type AuditDelivery struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventType  string    `gorm:"type:varchar(30);not null;index"`
	ActorName  string    `gorm:"not null"`
	TerminalID uuid.UUID `gorm:"type:uuid;not null"`
	// Description is the human-readable line the sink stores verbatim.
	Description string `gorm:"not null"`
	// ReferenceID points at the session or cut that produced the entry.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`

	Status      string     `gorm:"type:varchar(12);not null;default:'pending';index"`
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"index"`
	LastError   *string

	CreatedAt   time.Time
	DeliveredAt *time.Time
}
