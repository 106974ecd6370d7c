package quota

import (
	"context"

	"mockprep/internal/models"
	"mockprep/internal/repositories"

	"go.uber.org/zap"
)

// Decision is the outcome of a reservation attempt.
type Decision struct {
	Allowed bool
	Reason  string
	State   *models.SubscriptionState
}

const ReasonFreeLimit = "free limit reached"

// Gate enforces the free-tier session limit with a single conditional store update.
type Gate struct {
	subs   repositories.SubscriptionRepository
	limit  int
	logger *zap.Logger
}

func NewGate(subs repositories.SubscriptionRepository, limit int, logger *zap.Logger) *Gate {
	if limit < 0 {
		limit = models.DefaultFreeSessionLimit
	}
	return &Gate{subs: subs, limit: limit, logger: logger}
}

// TryReserveSlot reserves one free-tier session for owner. Subscribed owners are always
// allowed and their count is left alone.
func (g *Gate) TryReserveSlot(ctx context.Context, owner string) (Decision, error) {
	if owner == "" {
		return Decision{}, &models.ValidationError{Field: "ownerIdentity", Reason: "is required"}
	}

	allowed, state, err := g.subs.ReserveSlot(ctx, owner, g.limit)
	if err != nil {
		g.logger.Error("quota reservation failed", zap.String("owner", owner), zap.Error(err))
		return Decision{}, err
	}
	if !allowed {
		g.logger.Info("quota exceeded", zap.String("owner", owner), zap.Int("session_count", state.SessionCount))
		return Decision{Allowed: false, Reason: ReasonFreeLimit, State: state}, nil
	}
	return Decision{Allowed: true, State: state}, nil
}

// Release returns a slot taken by TryReserveSlot when the session it paid for was never created.
func (g *Gate) Release(ctx context.Context, owner string) {
	if err := g.subs.ReleaseSlot(ctx, owner); err != nil {
		g.logger.Error("failed to release quota slot", zap.String("owner", owner), zap.Error(err))
	}
}

// State returns the owner's subscription record, creating it on first read.
func (g *Gate) State(ctx context.Context, owner string) (*models.SubscriptionState, error) {
	return g.subs.Get(ctx, owner)
}

// Err converts a denied decision into models.ErrQuotaExceeded.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return models.ErrQuotaExceeded
}
