package service

import (
	"context"
	"errors"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ErrQuotaExceeded is returned when a free increment finds the user's daily
// allotment already consumed. The caller must not double-charge: the
// counter is left untouched.
var ErrQuotaExceeded = errors.New("daily generation limit reached")

// QuotaService gates how often a user may invoke AI generation per day.
type QuotaService interface {
	CheckQuota(ctx context.Context, userID string) (*model.QuotaStatus, error)
	// IncrementUsage records one generation. isPaid generations never
	// consume the free allotment and always succeed.
	IncrementUsage(ctx context.Context, userID string, isPaid bool) error
}

type quotaService struct {
	repo      repository.UsageRepository
	freeLimit int
	now       func() time.Time
	logger    zerolog.Logger
}

// NewQuotaService creates a QuotaService with the given daily free limit.
func NewQuotaService(repo repository.UsageRepository, freeLimit int, logger zerolog.Logger) QuotaService {
	return &quotaService{
		repo:      repo,
		freeLimit: freeLimit,
		now:       time.Now,
		logger:    logger.With().Str("service", "QuotaService").Logger(),
	}
}

// dayKey is the UTC calendar date used to partition usage counters.
func (s *quotaService) dayKey() string {
	return s.now().UTC().Format("2006-01-02")
}

func (s *quotaService) CheckQuota(ctx context.Context, userID string) (*model.QuotaStatus, error) {
	usage, err := s.repo.GetOrInitUsage(ctx, userID, s.dayKey())
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch usage")
		return nil, err
	}

	remaining := s.freeLimit - usage.FreeCount
	if remaining < 0 {
		remaining = 0
	}
	return &model.QuotaStatus{
		CanGenerate:   remaining > 0,
		FreeRemaining: remaining,
		FreeLimit:     s.freeLimit,
		NeedsPayment:  remaining == 0,
	}, nil
}

func (s *quotaService) IncrementUsage(ctx context.Context, userID string, isPaid bool) error {
	err := s.repo.IncrementIfAllowed(ctx, userID, s.dayKey(), isPaid, s.freeLimit)
	if errors.Is(err, repository.ErrDailyLimitExceeded) {
		return ErrQuotaExceeded
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Bool("is_paid", isPaid).Msg("Failed to record usage")
		return err
	}
	return nil
}
