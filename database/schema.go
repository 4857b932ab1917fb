package database

import (
	"github.com/dinewell/tableside/models"
	"github.com/dinewell/tableside/utils"
	"gorm.io/gorm"
)

// Schema extras that AutoMigrate cannot express, applied right after it.

// Partial unique index backing the one-active-session-per-table invariant.
// The transactional row lock on the table is the primary enforcement; MySQL
// has no partial indexes, so there the lock stands alone.
const sqliteOneActiveSession = `CREATE UNIQUE INDEX IF NOT EXISTS idx_table_sessions_one_active
	ON table_sessions(table_id) WHERE active`

// ApplySchema runs the raw DDL statements for the current dialect. Each
// statement is skipped when its table has not been migrated yet.
func ApplySchema(db *gorm.DB) error {
	m := db.Migrator()

	if db.Dialector.Name() == "sqlite" && m.HasTable(&models.TableSession{}) {
		if err := db.Exec(sqliteOneActiveSession).Error; err != nil {
			utils.ErrorLogger.Printf("schema statement failed: %v", err)
			return err
		}
	}

	// Dispatch listing filters by location and status, then orders by
	// priority and age.
	if m.HasTable(&models.WaiterCall{}) && !m.HasIndex(&models.WaiterCall{}, "idx_waiter_calls_dispatch") {
		if err := db.Exec(
			`CREATE INDEX idx_waiter_calls_dispatch ON waiter_calls(location_id, status, priority, created_at)`,
		).Error; err != nil {
			utils.ErrorLogger.Printf("schema statement failed: %v", err)
			return err
		}
	}
	return nil
}
