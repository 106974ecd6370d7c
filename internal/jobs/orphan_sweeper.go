package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper removes answer records left behind by an interrupted session delete.
type Sweeper interface {
	SweepOrphans(ctx context.Context) (int64, error)
}

// OrphanSweeperJob runs a Sweeper on a cron schedule.
type OrphanSweeperJob struct {
	sweeper  Sweeper
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewOrphanSweeperJob(sweeper Sweeper, schedule string, logger *zap.Logger) *OrphanSweeperJob {
	return &OrphanSweeperJob{
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  5 * time.Minute,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start schedules the sweep. An empty schedule disables it.
func (j *OrphanSweeperJob) Start() error {
	if j.schedule == "" {
		j.logger.Info("orphan sweep disabled")
		return nil
	}

	_, err := j.cron.AddFunc(j.schedule, func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.logger.Error("orphan sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule orphan sweep: %w", err)
	}

	j.cron.Start()
	j.logger.Info("orphan sweeper started", zap.String("schedule", j.schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (j *OrphanSweeperJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		j.logger.Info("orphan sweeper stopped")
	}
}

// RunOnce performs a single sweep.
func (j *OrphanSweeperJob) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	n, err := j.sweeper.SweepOrphans(ctx)
	if n > 0 {
		j.logger.Info("orphaned answers removed", zap.Int64("count", n))
	}
	return n, err
}
