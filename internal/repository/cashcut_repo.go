package repository

import (
	"context"
	"errors"
	"time"

	"lunapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CashCutRepository owns the append-only cash-cut audit trail.
type CashCutRepository interface {
	Create(ctx context.Context, c *model.CashCut) error
	CreateTx(tx *gorm.DB, c *model.CashCut) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashCut, error)
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.CashCut, error)
	List(ctx context.Context, cutType string, page, limit int) ([]model.CashCut, int64, error)

	// LastCutEnd returns the end time of the most recent cut of the given
	// type, scoped to a terminal for shift cuts (terminalID nil = store-wide).
	// Returns (zero, nil) when no cut exists yet.
	LastCutEnd(ctx context.Context, cutType string, terminalID *uuid.UUID) (time.Time, error)
}

type cashCutRepo struct{ db *gorm.DB }

func NewCashCutRepository(db *gorm.DB) CashCutRepository { return &cashCutRepo{db: db} }

func (r *cashCutRepo) Create(ctx context.Context, c *model.CashCut) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cashCutRepo) CreateTx(tx *gorm.DB, c *model.CashCut) error {
	return tx.Create(c).Error
}

func (r *cashCutRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashCut, error) {
	var c model.CashCut
	err := r.db.WithContext(ctx).Preload("Terminal").First(&c, id).Error
	return &c, err
}

func (r *cashCutRepo) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.CashCut, error) {
	var c model.CashCut
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cashCutRepo) List(ctx context.Context, cutType string, page, limit int) ([]model.CashCut, int64, error) {
	var cuts []model.CashCut
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashCut{})
	if cutType != "" {
		q = q.Where("cut_type = ?", cutType)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Terminal").
		Order("end_time DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&cuts).Error
	return cuts, total, err
}

func (r *cashCutRepo) LastCutEnd(ctx context.Context, cutType string, terminalID *uuid.UUID) (time.Time, error) {
	q := r.db.WithContext(ctx).Model(&model.CashCut{}).Where("cut_type = ?", cutType)
	if terminalID != nil {
		q = q.Where("terminal_id = ?", *terminalID)
	}
	var c model.CashCut
	err := q.Order("end_time DESC").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return c.EndTime, nil
}
