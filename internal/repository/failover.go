package repository

import (
	"context"
	"sync/atomic"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

const defaultRecoveryInterval = time.Minute

// FailoverLimitStore prefers the primary store and switches to the fallback
// after the first primary error. The primary is retried once per recovery
// interval.
type FailoverLimitStore struct {
	primary   domain.LimitStore
	fallback  domain.LimitStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	recovery  time.Duration
}

var _ domain.LimitStore = (*FailoverLimitStore)(nil)

func NewFailoverLimitStore(primary, fallback domain.LimitStore, logger *zerolog.Logger) *FailoverLimitStore {
	return &FailoverLimitStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		recovery: defaultRecoveryInterval,
	}
}

// Degraded reports whether calls currently go to the fallback.
func (r *FailoverLimitStore) Degraded() bool {
	return r.isDown.Load()
}

func (r *FailoverLimitStore) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary limit store failed, falling back to memory")
	}
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverLimitStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
		return r.fallback.CheckRateLimit(ctx, key, limit, window)
	}

	// Пробуем вернуться на основное хранилище
	if time.Since(time.Unix(0, r.lastCheck.Load())) > r.recovery {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.isDown.Store(false)
			r.logger.Info().Msg("Primary limit store recovered")
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
