package repository

import (
	"context"
	"errors"
	"time"

	"lunapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRepository owns CashSession persistence.
type SessionRepository interface {
	Create(ctx context.Context, s *model.CashSession) error
	CreateTx(tx *gorm.DB, s *model.CashSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	// FindActive returns the most recently opened session with status = open
	// for the terminal, or (nil, nil) when there is none.
	FindActive(ctx context.Context, terminalID uuid.UUID) (*model.CashSession, error)
	// ListOpen returns every open session store-wide, terminal preloaded,
	// optionally excluding one terminal (the one performing a day close).
	ListOpen(ctx context.Context, excludeTerminal *uuid.UUID) ([]model.CashSession, error)
	ListClosed(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)
	// CloseTx flips the session to closed with a status guard. Returns false
	// when the row was no longer open, so of two racing closes only one can
	// write a cut.
	CloseTx(tx *gorm.DB, id uuid.UUID, closedAt time.Time) (bool, error)

	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) Create(ctx context.Context, s *model.CashSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) CreateTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Preload("Terminal").First(&s, id).Error
	return &s, err
}

// FindActive orders by opened_at descending and takes the newest row so a
// historical anomaly where two opens raced is tolerated without crashing:
// the most recent open session wins.
func (r *sessionRepo) FindActive(ctx context.Context, terminalID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("terminal_id = ? AND status = ?", terminalID, model.SessionOpen).
		Order("opened_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) ListOpen(ctx context.Context, excludeTerminal *uuid.UUID) ([]model.CashSession, error) {
	q := r.db.WithContext(ctx).Preload("Terminal").Where("status = ?", model.SessionOpen)
	if excludeTerminal != nil {
		q = q.Where("terminal_id <> ?", *excludeTerminal)
	}
	var sessions []model.CashSession
	err := q.Order("opened_at ASC").Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) ListClosed(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashSession{}).Where("status = ?", model.SessionClosed)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Terminal").
		Order("closed_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&sessions).Error
	return sessions, total, err
}

// CloseTx mirrors the stock guard: the status predicate decides inside the
// statement, not a check-then-save.
func (r *sessionRepo) CloseTx(tx *gorm.DB, id uuid.UUID, closedAt time.Time) (bool, error) {
	res := tx.Model(&model.CashSession{}).
		Where("id = ? AND status = ?", id, model.SessionOpen).
		Updates(map[string]interface{}{
			"status":    model.SessionClosed,
			"closed_at": closedAt,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *sessionRepo) DB() *gorm.DB { return r.db }
