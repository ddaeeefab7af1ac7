package repository

import (
	"context"

	"lunapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TerminalRepository defines the data access contract for terminal identities.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via fakes.
type TerminalRepository interface {
	Create(ctx context.Context, t *model.Terminal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Terminal, error)
	ListActive(ctx context.Context) ([]model.Terminal, error)
	Deactivate(ctx context.Context, id uuid.UUID) error

	// ClearMainTx drops is_main on every terminal except the given one.
	// Runs inside the registration transaction so promoting a new main
	// terminal is last-writer-wins without a window of two mains.
	ClearMainTx(tx *gorm.DB, exceptID uuid.UUID) error
	CreateTx(tx *gorm.DB, t *model.Terminal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type terminalRepo struct{ db *gorm.DB }

func NewTerminalRepository(db *gorm.DB) TerminalRepository { return &terminalRepo{db: db} }

func (r *terminalRepo) Create(ctx context.Context, t *model.Terminal) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *terminalRepo) CreateTx(tx *gorm.DB, t *model.Terminal) error {
	return tx.Create(t).Error
}

func (r *terminalRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Terminal, error) {
	var t model.Terminal
	err := r.db.WithContext(ctx).First(&t, id).Error
	return &t, err
}

func (r *terminalRepo) ListActive(ctx context.Context) ([]model.Terminal, error) {
	var terminals []model.Terminal
	err := r.db.WithContext(ctx).Where("is_active = true").Order("name ASC").Find(&terminals).Error
	return terminals, err
}

func (r *terminalRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Terminal{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "is_main": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *terminalRepo) ClearMainTx(tx *gorm.DB, exceptID uuid.UUID) error {
	return tx.Model(&model.Terminal{}).
		Where("is_main = true AND id <> ?", exceptID).
		Update("is_main", false).Error
}

func (r *terminalRepo) DB() *gorm.DB { return r.db }
