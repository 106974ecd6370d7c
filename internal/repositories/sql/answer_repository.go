package sql

import (
	"context"
	"errors"
	"time"

	"mockprep/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func (r *AnswerRepository) Insert(ctx context.Context, record *models.AnswerRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if err := r.DB.WithContext(ctx).Create(record).Error; err != nil {
		if isDuplicate(err) {
			return models.ErrDuplicate
		}
		return models.StoreError("insert answer", err)
	}
	return nil
}

func (r *AnswerRepository) Replace(ctx context.Context, record *models.AnswerRecord) error {
	var existing models.AnswerRecord
	now := time.Now().UTC()
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ? AND question_index = ?", record.SessionID, record.QuestionIndex).
			First(&existing).Error; err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]interface{}{
			"question_text":    record.QuestionText,
			"reference_answer": record.ReferenceAnswer,
			"user_transcript":  record.UserTranscript,
			"feedback_text":    record.FeedbackText,
			"rating":           record.Rating,
			"owner_identity":   record.OwnerIdentity,
			"media_ref":        record.MediaRef,
			"updated_at":       now,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrNotFound
		}
		return models.StoreError("replace answer", err)
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = now
	return nil
}

func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID string) ([]models.AnswerRecord, error) {
	records := []models.AnswerRecord{}
	err := r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Order("question_index ASC").
		Find(&records).Error
	if err != nil {
		return nil, models.StoreError("list answers", err)
	}
	return records, nil
}

func (r *AnswerRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.AnswerRecord{})
	if res.Error != nil {
		return 0, models.StoreError("delete answers", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *AnswerRepository) SessionIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.DB.WithContext(ctx).Model(&models.AnswerRecord{}).Distinct().Pluck("session_id", &ids).Error; err != nil {
		return nil, models.StoreError("list answer sessions", err)
	}
	return ids, nil
}
