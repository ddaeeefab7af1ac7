package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is the authenticated caller: staff identity plus the terminal
// context the request was issued from. Built by the handler layer from the
// validated JWT claims — services never read tokens themselves.
type Actor struct {
	UserID       uuid.UUID
	Username     string
	Role         string
	TerminalID   uuid.UUID
	TerminalName string
	IsMain       bool
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func fmtTime(t time.Time) string { return t.Format(time.RFC3339) }

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtTime(*t)
	return &s
}

// startOfDay is the window fallback when no prior cut exists.
func startOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
