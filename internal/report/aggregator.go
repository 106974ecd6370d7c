package report

import (
	"context"
	"errors"
	"math"
	"sync"

	"go.uber.org/zap"

	"mockprep/internal/models"
	"mockprep/internal/repositories"
)

// Cache stores computed reports. Get returns (nil, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, sessionID string) (*models.Report, error)
	Set(ctx context.Context, report *models.Report) error
	Invalidate(ctx context.Context, sessionID string) error
}

// Aggregator rebuilds session reports and owns session deletion.
type Aggregator struct {
	sessions repositories.SessionRepository
	answers  repositories.AnswerRepository
	cache    Cache
	logger   *zap.Logger

	// fillMu orders cache fills against invalidations; gens counts invalidations per session.
	fillMu sync.Mutex
	gens   map[string]uint64
}

// NewAggregator builds an Aggregator. cache may be nil.
func NewAggregator(sessions repositories.SessionRepository, answers repositories.AnswerRepository, cache Cache, logger *zap.Logger) *Aggregator {
	return &Aggregator{sessions: sessions, answers: answers, cache: cache, logger: logger, gens: make(map[string]uint64)}
}

// GetReport returns the session's answers in creation order with the mean rating.
func (a *Aggregator) GetReport(ctx context.Context, sessionID string) (*models.Report, error) {
	if a.cache != nil {
		cached, err := a.cache.Get(ctx, sessionID)
		if err != nil {
			a.logger.Warn("report cache read failed", zap.String("session_id", sessionID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	gen := a.generation(sessionID)
	records, err := a.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	report := Build(sessionID, records)

	if a.cache != nil {
		a.fill(ctx, report, gen)
	}
	return report, nil
}

// fill caches report unless the session was invalidated after gen was read.
func (a *Aggregator) fill(ctx context.Context, report *models.Report, gen uint64) {
	a.fillMu.Lock()
	defer a.fillMu.Unlock()
	if a.gens[report.SessionID] != gen {
		a.logger.Debug("report changed while building; not caching", zap.String("session_id", report.SessionID))
		return
	}
	if err := a.cache.Set(ctx, report); err != nil {
		a.logger.Warn("report cache write failed", zap.String("session_id", report.SessionID), zap.Error(err))
	}
}

func (a *Aggregator) generation(sessionID string) uint64 {
	a.fillMu.Lock()
	defer a.fillMu.Unlock()
	return a.gens[sessionID]
}

// Build computes a report from records already in creation order.
func Build(sessionID string, records []models.AnswerRecord) *models.Report {
	if records == nil {
		records = []models.AnswerRecord{}
	}
	report := &models.Report{SessionID: sessionID, Answers: records, RatingStatus: models.RatingUnavailable}
	if overall, ok := OverallRating(records); ok {
		report.OverallRating = &overall
		report.RatingStatus = models.RatingAvailable
	}
	return report
}

// OverallRating is the mean rating rounded to one decimal. It reports false for no records.
func OverallRating(records []models.AnswerRecord) (float64, bool) {
	if len(records) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range records {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(records))
	return math.Round(mean*10) / 10, true
}

// Invalidate drops the cached report after an answer for the session changes.
func (a *Aggregator) Invalidate(ctx context.Context, sessionID string) {
	if a.cache == nil {
		return
	}
	// a fill already past its check finishes first, so the delete below removes it
	a.fillMu.Lock()
	a.gens[sessionID]++
	a.fillMu.Unlock()
	if err := a.cache.Invalidate(ctx, sessionID); err != nil {
		a.logger.Warn("report cache invalidation failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// DeleteSession removes the session and then its answers. If the second delete fails the
// orphan sweeper removes the leftovers.
func (a *Aggregator) DeleteSession(ctx context.Context, sessionID string) error {
	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	a.Invalidate(ctx, sessionID)

	n, err := a.answers.DeleteBySession(ctx, sessionID)
	if err != nil {
		a.logger.Error("failed to delete answers for session; leaving them for the sweeper",
			zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	a.forget(sessionID)
	a.logger.Info("session deleted", zap.String("session_id", sessionID), zap.Int64("answers_deleted", n))
	return nil
}

// SweepOrphans deletes answers whose session no longer exists and returns how many went.
func (a *Aggregator) SweepOrphans(ctx context.Context) (int64, error) {
	ids, err := a.answers.SessionIDs(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	var errs []error
	for _, id := range ids {
		exists, err := a.sessions.Exists(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if exists {
			continue
		}
		n, err := a.answers.DeleteBySession(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		a.Invalidate(ctx, id)
		a.forget(id)
		total += n
	}
	return total, errors.Join(errs...)
}

func (a *Aggregator) forget(sessionID string) {
	a.fillMu.Lock()
	delete(a.gens, sessionID)
	a.fillMu.Unlock()
}
