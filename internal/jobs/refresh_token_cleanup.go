// File: internal/jobs/refresh_token_cleanup.go
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenPurger deletes expired refresh tokens.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RefreshTokenCleanupJob periodically removes expired refresh tokens.
type RefreshTokenCleanupJob struct {
	purger        TokenPurger
	schedule      string
	logger        *zap.Logger
	cronScheduler *cron.Cron
}

// NewRefreshTokenCleanupJob creates the job. An empty schedule disables it.
func NewRefreshTokenCleanupJob(purger TokenPurger, schedule string, logger *zap.Logger) *RefreshTokenCleanupJob {
	scheduler := cron.New(
		cron.WithLogger(NewCronLogger(logger.Named("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(NewCronLogger(logger.Named("cron")))),
	)
	return &RefreshTokenCleanupJob{
		purger:        purger,
		schedule:      schedule,
		logger:        logger.Named("RefreshTokenCleanupJob"),
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *RefreshTokenCleanupJob) SetupAndStart() error {
	if j.schedule == "" {
		j.logger.Info("Refresh token cleanup schedule not defined (REFRESH_TOKEN_CLEANUP_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(j.schedule, j.RunOnce)
	if err != nil {
		j.logger.Error("Failed to schedule refresh token cleanup job", zap.String("schedule", j.schedule), zap.Error(err))
		return err
	}

	j.logger.Info("Refresh token cleanup job scheduled", zap.String("schedule", j.schedule), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// RunOnce performs a single cleanup pass.
func (j *RefreshTokenCleanupJob) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		j.logger.Error("Refresh token cleanup run failed", zap.Error(err))
		return
	}
	j.logger.Info("Refresh token cleanup run completed", zap.Int64("tokens_deleted", deleted))
}

// Stop gracefully stops the cron scheduler.
func (j *RefreshTokenCleanupJob) Stop() {
	j.logger.Info("Stopping refresh token cleanup scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Refresh token cleanup scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Refresh token cleanup scheduler stop timed out.")
	}
}
