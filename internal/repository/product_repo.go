package repository

import (
	"context"

	"lunapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository is the read + guarded-decrement surface the engine needs
// from the catalog. Full catalog CRUD is owned by another system.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) error

	// DecrementStockTx atomically decrements stock inside tx, guarded by a
	// stock >= qty predicate executed at the store. On success stock is the
	// post-decrement quantity; on a rejected guard it returns
	// (false, remaining, nil) with the true remaining quantity.
	DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (ok bool, stock int, err error)

	CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)

	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("code = ? AND is_active = true", code).First(&p).Error
	return &p, err
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// DecrementStockTx is the single write path for product stock. The UPDATE
// carries the guard predicate so two terminals racing to sell the last unit
// are serialized by the store: exactly one UPDATE matches, the other sees
// RowsAffected == 0 and reads back the true remaining quantity. RETURNING
// hands the winner its post-decrement stock so movement before/after pairs
// come from the decrement itself; a separate read under READ COMMITTED can
// observe a value another transaction is about to change.
func (r *productRepo) DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, int, error) {
	var p model.Product
	res := tx.Model(&p).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "stock"}}}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, 0, res.Error
	}
	if res.RowsAffected == 0 {
		var cur model.Product
		if err := tx.Select("stock").First(&cur, id).Error; err != nil {
			return false, 0, err
		}
		return false, cur.Stock, nil
	}
	return true, p.Stock, nil
}

func (r *productRepo) CreateMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *productRepo) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var movs []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&movs).Error
	return movs, err
}

func (r *productRepo) DB() *gorm.DB { return r.db }
