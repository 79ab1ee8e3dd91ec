package database

import (
	"fmt"
	"gorm.io/gorm"
)

// RunMigrations executes migrations AutoMigrate cannot express
func RunMigrations(db *gorm.DB) error {
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	if err := backfillBoardStage(db); err != nil {
		return fmt.Errorf("failed to backfill board stage: %w", err)
	}

	return nil
}

// createIndexes creates database indexes
func createIndexes(db *gorm.DB) error {
	// Board and report listings sort by creation time
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cases_created_at
		ON cases(created_at)
	`).Error; err != nil {
		return err
	}

	// Report receipts lookup
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_case_category
		ON documents(case_id, category)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_activity_logs_created
		ON activity_logs(created_at)
	`).Error; err != nil {
		return err
	}

	return nil
}

// backfillBoardStage gives legacy rows without a stage the first stage
func backfillBoardStage(db *gorm.DB) error {
	return db.Exec(`
		UPDATE cases SET board_stage = 'basvuru_alindi'
		WHERE board_stage IS NULL OR board_stage = ''
	`).Error
}
