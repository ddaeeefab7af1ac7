package repository

import (
	"context"
	"time"

	"lunapos/internal/dto"
	"lunapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleRepository owns Sale persistence and the window queries the
// reconciliation calculator runs.
type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	NextTicketNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)

	// ListSince fetches sales with created_at >= start, scoped to a terminal
	// when terminalID is non-nil (shift cuts) or store-wide (day cuts).
	ListSince(ctx context.Context, start time.Time, terminalID *uuid.UUID) ([]model.Sale, error)

	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

// NextTicketNumber pulls from a dedicated sequence so ticket numbers are
// gapless-enough and never reused, even across concurrent terminals.
func (r *saleRepo) NextTicketNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	var n int64
	err := db.Raw("SELECT nextval('sale_ticket_seq')").Scan(&n).Error
	return n, err
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Lines").Preload("Terminal").First(&s, id).Error
	return &s, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.Date != "" {
		if day, err := time.Parse("2006-01-02", filter.Date); err == nil {
			q = q.Where("created_at >= ? AND created_at < ?", day, day.AddDate(0, 0, 1))
		}
	}
	if filter.TerminalID != "" {
		q = q.Where("terminal_id = ?", filter.TerminalID)
	}
	if filter.PaymentMethod != "" {
		q = q.Where("payment_method = ?", filter.PaymentMethod)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Lines").
		Order("created_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) ListSince(ctx context.Context, start time.Time, terminalID *uuid.UUID) ([]model.Sale, error) {
	q := r.db.WithContext(ctx).Where("created_at >= ?", start)
	if terminalID != nil {
		q = q.Where("terminal_id = ?", *terminalID)
	}
	var sales []model.Sale
	err := q.Order("created_at ASC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) DB() *gorm.DB { return r.db }
