package interview

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mockprep/internal/metrics"
	"mockprep/internal/models"
	"mockprep/internal/quota"
	"mockprep/internal/repositories"
)

// QuestionGenerator produces a session's fixed question set.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, role, description, experience string) ([]models.QuestionPair, error)
}

// SlotGate reserves and releases free-tier session slots.
type SlotGate interface {
	TryReserveSlot(ctx context.Context, owner string) (quota.Decision, error)
	Release(ctx context.Context, owner string)
}

// SessionDeleter removes a session with its answers.
type SessionDeleter interface {
	DeleteSession(ctx context.Context, sessionID string) error
}

// Service creates, lists and deletes interview sessions.
type Service struct {
	sessions  repositories.SessionRepository
	gate      SlotGate
	generator QuestionGenerator
	deleter   SessionDeleter
	logger    *zap.Logger
}

func NewService(sessions repositories.SessionRepository, gate SlotGate, generator QuestionGenerator, deleter SessionDeleter, logger *zap.Logger) *Service {
	return &Service{sessions: sessions, gate: gate, generator: generator, deleter: deleter, logger: logger}
}

// Create reserves a quota slot, generates the questions and stores the session. A slot
// reserved for a session that could not be created is given back.
func (s *Service) Create(ctx context.Context, owner string, req models.CreateInterviewRequest) (*models.InterviewSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	decision, err := s.gate.TryReserveSlot(ctx, owner)
	if err != nil {
		return nil, err
	}
	metrics.ObserveQuota(decision.Allowed)
	if !decision.Allowed {
		return nil, decision.Err()
	}

	session, err := s.createReserved(ctx, owner, req)
	if err != nil {
		// the caller's context may already be cancelled
		s.gate.Release(context.WithoutCancel(ctx), owner)
		return nil, err
	}

	s.logger.Info("interview session created",
		zap.String("session_id", session.ID),
		zap.String("owner", owner),
		zap.Int("questions", len(session.QuestionSet)))
	return session, nil
}

func (s *Service) createReserved(ctx context.Context, owner string, req models.CreateInterviewRequest) (*models.InterviewSession, error) {
	questions, err := s.generator.GenerateQuestions(ctx, req.JobPosition, req.JobDescription, req.ExperienceYears)
	if err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	session := &models.InterviewSession{
		ID:              id,
		JobPosition:     req.JobPosition,
		JobDescription:  req.JobDescription,
		ExperienceYears: req.ExperienceYears,
		QuestionSet:     questions,
		OwnerIdentity:   owner,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) List(ctx context.Context, owner string) ([]models.InterviewSession, error) {
	return s.sessions.ListByOwner(ctx, owner)
}

// Get returns the session if owner owns it.
func (s *Service) Get(ctx context.Context, owner, id string) (*models.InterviewSession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.OwnerIdentity != owner {
		return nil, models.ErrForbidden
	}
	return session, nil
}

// Delete removes an owned session and its answers.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	if err := s.deleter.DeleteSession(ctx, id); err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return nil
}
