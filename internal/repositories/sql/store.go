package sql

import (
	"context"
	"errors"
	"strings"

	"mockprep/internal/models"
	"mockprep/internal/repositories"

	"gorm.io/gorm"
)

// Migrate creates or updates the tables for all three entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.InterviewSession{}, &models.AnswerRecord{}, &models.SubscriptionState{})
}

// NewStore wires the gorm repositories for db.
func NewStore(db *gorm.DB) *repositories.Store {
	return &repositories.Store{
		Sessions:      &SessionRepository{DB: db},
		Answers:       &AnswerRepository{DB: db},
		Subscriptions: &SubscriptionRepository{DB: db},
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// isDuplicate matches translated and raw unique-violation errors from postgres and sqlite.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
