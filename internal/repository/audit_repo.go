package repository

import (
	"context"
	"time"

	"lunapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository tracks the delivery state of audit entries bound for the
// external sink (local outbox).
type AuditRepository interface {
	Create(ctx context.Context, a *model.AuditDelivery) error
	CreateTx(tx *gorm.DB, a *model.AuditDelivery) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AuditDelivery, error)
	Update(ctx context.Context, a *model.AuditDelivery) error

	// ListPendingRetries returns pending deliveries whose next_retry_at has
	// passed, oldest first, capped at limit. Consumed by the retry cron.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.AuditDelivery, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Create(ctx context.Context, a *model.AuditDelivery) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *auditRepo) CreateTx(tx *gorm.DB, a *model.AuditDelivery) error {
	return tx.Create(a).Error
}

func (r *auditRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.AuditDelivery, error) {
	var a model.AuditDelivery
	err := r.db.WithContext(ctx).First(&a, id).Error
	return &a, err
}

func (r *auditRepo) Update(ctx context.Context, a *model.AuditDelivery) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *auditRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.AuditDelivery, error) {
	var pending []model.AuditDelivery
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.DeliveryPending, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&pending).Error
	return pending, err
}
