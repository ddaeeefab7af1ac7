package infra

import (
	"fmt"

	"lunapos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for every entity, then applies idempotent SQL patches that GORM cannot
// express (partial unique index, ticket sequence).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates/updates the schema. Also used by the env-guarded
// integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Terminal{},
		&model.CashSession{},
		&model.Sale{},
		&model.SaleLine{},
		&model.CashCut{},
		&model.Product{},
		&model.StockMovement{},
		&model.AuditDelivery{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Each statement uses IF NOT EXISTS semantics so re-running is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open session per terminal, enforced at the store. The
		// open flow checks first, but the index closes the race between two
		// concurrent opens on the same terminal.
		{"partial unique index on open sessions", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_cash_sessions_one_open_per_terminal
    ON cash_sessions (terminal_id)
    WHERE status = 'open'`},
		// Ticket numbers come from a sequence shared by all terminals so they
		// are never reused under concurrent sales.
		{"sale ticket sequence",
			`CREATE SEQUENCE IF NOT EXISTS sale_ticket_seq START 1`},
		// Stock can never go negative regardless of write path.
		{"non-negative stock check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_stock_nonneg') THEN
    ALTER TABLE products ADD CONSTRAINT chk_products_stock_nonneg CHECK (stock >= 0);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
