package repositories

import (
	"context"

	"mockprep/internal/models"
)

// SessionRepository captures the persistence operations on interview sessions.
type SessionRepository interface {
	// Create returns models.ErrDuplicate when the id is taken.
	Create(ctx context.Context, session *models.InterviewSession) error
	// GetByID returns models.ErrNotFound when no session has the id.
	GetByID(ctx context.Context, id string) (*models.InterviewSession, error)
	// ListByOwner returns the owner's sessions newest first.
	ListByOwner(ctx context.Context, owner string) ([]models.InterviewSession, error)
	// Delete returns models.ErrNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// AnswerRepository captures the persistence operations on answer records.
type AnswerRepository interface {
	// Insert returns models.ErrDuplicate when (sessionId, questionIndex) already has a record.
	Insert(ctx context.Context, record *models.AnswerRecord) error
	// Replace overwrites the record for (sessionId, questionIndex), keeping its id and createdAt.
	Replace(ctx context.Context, record *models.AnswerRecord) error
	// ListBySession returns records ordered by createdAt, then questionIndex.
	ListBySession(ctx context.Context, sessionID string) ([]models.AnswerRecord, error)
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
	// SessionIDs returns every distinct session id referenced by an answer.
	SessionIDs(ctx context.Context) ([]string, error)
}

// SubscriptionRepository captures quota and plan persistence. Only the quota gate
// and the payment webhook mutate it.
type SubscriptionRepository interface {
	// Get returns the state for owner, creating the default record on first read.
	Get(ctx context.Context, owner string) (*models.SubscriptionState, error)
	// ReserveSlot atomically increments sessionCount when the owner is not subscribed
	// and below limit. Subscribed owners are allowed without mutation.
	ReserveSlot(ctx context.Context, owner string, limit int) (allowed bool, state *models.SubscriptionState, err error)
	// ReleaseSlot undoes one reservation. It never goes below zero and never touches subscribed owners.
	ReleaseSlot(ctx context.Context, owner string) error
	// MarkSubscribed upserts the owner as subscribed on tier.
	MarkSubscribed(ctx context.Context, owner string, tier models.SubscriptionTier, customerID string) (*models.SubscriptionState, error)
}

// Store bundles the repositories for one backend.
type Store struct {
	Sessions      SessionRepository
	Answers       AnswerRepository
	Subscriptions SubscriptionRepository
	Ping          func(ctx context.Context) error
	Close         func(ctx context.Context) error
}
