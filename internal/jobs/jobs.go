package jobs

import (
	"context"
	"time"

	"github.com/aicharya/aicharya-backend/internal/repository"
	"github.com/aicharya/aicharya-backend/pkg/logger"
)

const jobTimeout = 30 * time.Second

// Jobs holds the periodic housekeeping tasks.
type Jobs struct {
	verifyRepo    repository.VerifyRepository
	rateLimitRepo repository.RateLimitRepository
}

func NewJobs(verifyRepo repository.VerifyRepository, rateLimitRepo repository.RateLimitRepository) *Jobs {
	return &Jobs{verifyRepo: verifyRepo, rateLimitRepo: rateLimitRepo}
}

// PurgeVerificationTokens deletes expired or used email verification tokens.
func (j *Jobs) PurgeVerificationTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.verifyRepo.DeleteExpiredTokens(ctx)
	if err != nil {
		logger.Error("Failed to purge verification tokens", "error", err)
		return
	}
	logger.Info("Purged verification tokens", "deleted", n)
}

// PurgeRateLimits drops rate limit windows that can no longer apply.
func (j *Jobs) PurgeRateLimits() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.rateLimitRepo.CleanupExpired(ctx)
	if err != nil {
		logger.Error("Failed to purge rate limits", "error", err)
		return
	}
	logger.Info("Purged rate limits", "deleted", n)
}
