package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mockprep/internal/capture"
	"mockprep/internal/feedback"
	"mockprep/internal/metrics"
	"mockprep/internal/models"
	"mockprep/internal/repositories"
)

// FeedbackRequester rates one transcript. It must not retry.
type FeedbackRequester interface {
	RequestFeedback(ctx context.Context, question, transcript string) feedback.Result
}

// ClipUploader stores a clip and returns its URL.
type ClipUploader interface {
	Upload(ctx context.Context, clip []byte, sessionID string, questionIndex int, owner string) (string, error)
}

// AnswerSaver persists validated answer records.
type AnswerSaver interface {
	SaveAnswer(ctx context.Context, rec *models.AnswerRecord) (*models.AnswerRecord, error)
	ReplaceAnswer(ctx context.Context, rec *models.AnswerRecord) (*models.AnswerRecord, error)
}

// ReportInvalidator drops cached reports when answers change.
type ReportInvalidator interface {
	Invalidate(ctx context.Context, sessionID string)
}

// Pipeline runs transcript -> feedback -> upload -> persist for one answer, strictly in order.
type Pipeline struct {
	sessions repositories.SessionRepository
	feedback FeedbackRequester
	uploader ClipUploader
	saver    AnswerSaver
	reports  ReportInvalidator
	pending  *PendingStore
	logger   *zap.Logger
}

func NewPipeline(
	sessions repositories.SessionRepository,
	requester FeedbackRequester,
	uploader ClipUploader,
	saver AnswerSaver,
	reports ReportInvalidator,
	pending *PendingStore,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		sessions: sessions,
		feedback: requester,
		uploader: uploader,
		saver:    saver,
		reports:  reports,
		pending:  pending,
		logger:   logger,
	}
}

// Submit processes a settled capture. A transcript under two words is rejected before
// any collaborator is called. When feedback fails the submission is retained for Retry.
// A failed upload still persists the answer without media. Answering the same question
// again replaces the earlier answer.
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (*models.AnswerResult, error) {
	sub.Transcript = strings.TrimSpace(sub.Transcript)

	session, err := p.sessions.GetByID(ctx, sub.SessionID)
	if err != nil {
		return nil, err
	}
	if session.OwnerIdentity != sub.Owner {
		return nil, models.ErrForbidden
	}
	question, ok := session.Question(sub.QuestionIndex)
	if !ok {
		return nil, &models.ValidationError{Field: "questionIndex", Reason: fmt.Sprintf("must be between 0 and %d", len(session.QuestionSet)-1)}
	}

	if models.CountTokens(sub.Transcript) < capture.MinAnswerTokens {
		metrics.ObserveAnswer("too_short")
		return nil, models.ErrTooShort
	}

	log := p.logger.With(
		zap.String("session_id", sub.SessionID),
		zap.Int("question_index", sub.QuestionIndex),
		zap.String("owner", sub.Owner))

	res := p.feedback.RequestFeedback(ctx, question.Question, sub.Transcript)
	metrics.ObserveFeedback(res.Kind.String())
	if res.Kind != feedback.Success {
		p.retain(sub)
		metrics.ObserveAnswer("feedback_" + res.Kind.String())
		log.Warn("feedback unavailable; answer retained for retry", zap.Stringer("kind", res.Kind), zap.Error(res.Err))
		return nil, res.Failure()
	}

	var mediaRef *string
	if len(sub.Clip) > 0 && p.uploader != nil {
		url, err := p.uploader.Upload(ctx, sub.Clip, sub.SessionID, sub.QuestionIndex, sub.Owner)
		if err != nil {
			metrics.ObserveUpload("failed")
			log.Warn("clip upload failed; saving answer without media", zap.Error(err))
		} else {
			metrics.ObserveUpload("stored")
			mediaRef = &url
		}
	}

	rec := &models.AnswerRecord{
		SessionID:       sub.SessionID,
		QuestionIndex:   sub.QuestionIndex,
		QuestionText:    question.Question,
		ReferenceAnswer: question.Answer,
		UserTranscript:  sub.Transcript,
		FeedbackText:    res.Feedback.Text,
		Rating:          res.Feedback.Rating,
		OwnerIdentity:   sub.Owner,
		MediaRef:        mediaRef,
	}

	replaced := false
	saved, err := p.saver.SaveAnswer(ctx, rec)
	if errors.Is(err, models.ErrDuplicate) {
		replaced = true
		saved, err = p.saver.ReplaceAnswer(ctx, rec)
	}
	if err != nil {
		metrics.ObserveAnswer("store_failed")
		if !errors.Is(err, models.ErrValidation) {
			p.retain(sub)
		}
		log.Error("answer not saved", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", models.ErrAnswerNotSaved, err)
	}

	p.release(sub)
	if p.reports != nil {
		p.reports.Invalidate(ctx, sub.SessionID)
	}
	metrics.ObserveAnswer("saved")
	log.Info("answer saved", zap.Int("rating", saved.Rating), zap.Bool("replaced", replaced), zap.Bool("media", mediaRef != nil))

	return &models.AnswerResult{Answer: *saved, MediaStored: mediaRef != nil, Replaced: replaced}, nil
}

// Retry resubmits the answer retained after a failed attempt.
func (p *Pipeline) Retry(ctx context.Context, owner, sessionID string, questionIndex int) (*models.AnswerResult, error) {
	if p.pending == nil {
		return nil, models.ErrNotFound
	}
	sub, ok := p.pending.Get(owner, sessionID, questionIndex)
	if !ok {
		return nil, models.ErrNotFound
	}
	return p.Submit(ctx, sub)
}

// SubmitCapture feeds a settled capture outcome into Submit.
func (p *Pipeline) SubmitCapture(ctx context.Context, owner, sessionID string, questionIndex int, out capture.Outcome) (*models.AnswerResult, error) {
	if out.Err != nil {
		return nil, out.Err
	}
	return p.Submit(ctx, Submission{
		SessionID:     sessionID,
		QuestionIndex: questionIndex,
		Owner:         owner,
		Transcript:    out.Transcript,
		Clip:          out.Clip,
	})
}

func (p *Pipeline) retain(sub Submission) {
	if p.pending != nil {
		p.pending.Put(sub)
	}
}

func (p *Pipeline) release(sub Submission) {
	if p.pending != nil {
		p.pending.Delete(sub.Owner, sub.SessionID, sub.QuestionIndex)
	}
}
