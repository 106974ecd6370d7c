package sql

import (
	"context"
	"errors"

	"mockprep/internal/models"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func (r *SessionRepository) Create(ctx context.Context, session *models.InterviewSession) error {
	if err := r.DB.WithContext(ctx).Create(session).Error; err != nil {
		if isDuplicate(err) {
			return models.ErrDuplicate
		}
		return models.StoreError("create session", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, models.StoreError("get session", err)
	}
	return &session, nil
}

func (r *SessionRepository) ListByOwner(ctx context.Context, owner string) ([]models.InterviewSession, error) {
	sessions := []models.InterviewSession{}
	err := r.DB.WithContext(ctx).
		Where("owner_identity = ?", owner).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, models.StoreError("list sessions", err)
	}
	return sessions, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.InterviewSession{})
	if res.Error != nil {
		return models.StoreError("delete session", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.InterviewSession{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.StoreError("count sessions", err)
	}
	return count > 0, nil
}
