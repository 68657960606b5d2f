package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/simpliearn/simpliearn-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	return EnsureJobIndexes(db)
}

// EnsureJobIndexes adds the partial unique index that makes at most one active job own a
// dedup key. Both Postgres and SQLite support partial indexes with this syntax.
func EnsureJobIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_job_run_dedup_active
		ON job_run (dedup_key)
		WHERE dedup_key <> '' AND status IN ('pending', 'running');
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_dedup_active: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_status_created
		ON job_run (status, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_status_created: %w", err)
	}
	return nil
}
