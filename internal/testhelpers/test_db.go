package testhelpers

import (
	"fmt"
	"testing"

	"mockprep/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	openSQLite = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		})
	}
	migrateSchema = func(db *gorm.DB) error {
		return db.AutoMigrate(&models.InterviewSession{}, &models.AnswerRecord{}, &models.SubscriptionState{})
	}
	dropAnswerTableFn = func(db *gorm.DB) error { return db.Migrator().DropTable(&models.AnswerRecord{}) }
)

// SetupTestDB creates an isolated in-memory SQLite database for tests.
// It holds a single connection so concurrent callers serialize like they would on a real server.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := openSQLite(dsn)
	if err != nil {
		panic(fmt.Sprintf("failed to open test database: %v", err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Sprintf("failed to access test database: %v", err))
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := migrateSchema(db); err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}
	return db
}

// DropAnswerTable removes the answers table to force repository errors.
func DropAnswerTable(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := dropAnswerTableFn(db); err != nil {
		panic(fmt.Sprintf("failed to drop answer table: %v", err))
	}
}
