package answers

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"mockprep/internal/models"
	"mockprep/internal/repositories"
)

// Persister validates and commits answer records.
type Persister struct {
	answers repositories.AnswerRepository
	logger  *zap.Logger
}

func NewPersister(answers repositories.AnswerRepository, logger *zap.Logger) *Persister {
	return &Persister{answers: answers, logger: logger}
}

// SaveAnswer inserts rec after validation. A second answer for the same question
// surfaces models.ErrDuplicate so the caller can choose to Replace.
func (p *Persister) SaveAnswer(ctx context.Context, rec *models.AnswerRecord) (*models.AnswerRecord, error) {
	if err := prepare(rec); err != nil {
		return nil, err
	}

	if err := p.answers.Insert(ctx, rec); err != nil {
		if !errors.Is(err, models.ErrDuplicate) {
			p.logger.Error("failed to save answer",
				zap.String("session_id", rec.SessionID),
				zap.Int("question_index", rec.QuestionIndex),
				zap.Error(err))
		}
		return nil, err
	}
	return rec, nil
}

// ReplaceAnswer overwrites the stored answer for the same question, keeping its createdAt.
func (p *Persister) ReplaceAnswer(ctx context.Context, rec *models.AnswerRecord) (*models.AnswerRecord, error) {
	if err := prepare(rec); err != nil {
		return nil, err
	}
	if err := p.answers.Replace(ctx, rec); err != nil {
		p.logger.Error("failed to replace answer",
			zap.String("session_id", rec.SessionID),
			zap.Int("question_index", rec.QuestionIndex),
			zap.Error(err))
		return nil, err
	}
	return rec, nil
}

func prepare(rec *models.AnswerRecord) error {
	if rec == nil {
		return &models.ValidationError{Field: "record", Reason: "is required"}
	}
	rec.SessionID = strings.TrimSpace(rec.SessionID)
	rec.QuestionText = strings.TrimSpace(rec.QuestionText)
	rec.UserTranscript = strings.TrimSpace(rec.UserTranscript)
	rec.FeedbackText = strings.TrimSpace(rec.FeedbackText)
	rec.OwnerIdentity = strings.TrimSpace(rec.OwnerIdentity)
	if rec.MediaRef != nil && strings.TrimSpace(*rec.MediaRef) == "" {
		rec.MediaRef = nil
	}
	return models.ValidateStruct(rec)
}
