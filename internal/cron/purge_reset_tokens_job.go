package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/feria-cr/feria-backend/pkg/logger"
)

const defaultResetTokenMaxAge = 24 * time.Hour

// PurgeResetTokensJobParams configure the expired-token cleanup.
type PurgeResetTokensJobParams struct {
	Logger *logger.Logger
	Tokens expiredTokenPurger
	MaxAge time.Duration
}

type expiredTokenPurger interface {
	PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// NewPurgeResetTokensJob builds the job that deletes expired password reset
// tokens. Used tokens keep their row until expiry for audit purposes.
func NewPurgeResetTokensJob(params PurgeResetTokensJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultResetTokenMaxAge
	}
	return &purgeResetTokensJob{
		logg:   params.Logger,
		tokens: params.Tokens,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type purgeResetTokensJob struct {
	logg   *logger.Logger
	tokens expiredTokenPurger
	maxAge time.Duration
	now    func() time.Time
}

func (j *purgeResetTokensJob) Name() string { return "purge-reset-tokens" }

func (j *purgeResetTokensJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	deleted, err := j.tokens.PurgeExpired(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge reset tokens: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "reset token cleanup complete")
	return nil
}
