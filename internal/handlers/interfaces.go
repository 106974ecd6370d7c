package handlers

import (
	"context"

	"mockprep/internal/capture"
	"mockprep/internal/interview"
	"mockprep/internal/models"
)

type InterviewService interface {
	Create(ctx context.Context, owner string, req models.CreateInterviewRequest) (*models.InterviewSession, error)
	List(ctx context.Context, owner string) ([]models.InterviewSession, error)
	Get(ctx context.Context, owner, id string) (*models.InterviewSession, error)
	Delete(ctx context.Context, owner, id string) error
}

// AnswerPipeline is satisfied by *interview.Pipeline.
type AnswerPipeline interface {
	Submit(ctx context.Context, sub interview.Submission) (*models.AnswerResult, error)
	Retry(ctx context.Context, owner, sessionID string, questionIndex int) (*models.AnswerResult, error)
	SubmitCapture(ctx context.Context, owner, sessionID string, questionIndex int, out capture.Outcome) (*models.AnswerResult, error)
}

type ReportSource interface {
	GetReport(ctx context.Context, sessionID string) (*models.Report, error)
}

type SubscriptionReader interface {
	State(ctx context.Context, owner string) (*models.SubscriptionState, error)
}

type SubscriptionMarker interface {
	MarkSubscribed(ctx context.Context, owner string, tier models.SubscriptionTier, customerID string) (*models.SubscriptionState, error)
}
