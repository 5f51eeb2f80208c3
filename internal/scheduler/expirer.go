package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const expireTimeout = time.Minute

type JobExpirer interface {
	DeactivateExpiredJobs(ctx context.Context, today time.Time) (int64, error)
}

// Expirer hides jobs once their application deadline has passed
type Expirer struct {
	store    JobExpirer
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewExpirer(store JobExpirer, interval time.Duration, logger *zap.Logger) *Expirer {
	return &Expirer{
		store:    store,
		interval: interval,
		logger:   logger.Named("expirer"),
		now:      time.Now,
	}
}

// Start runs one pass immediately, then one per interval until ctx is done
func (e *Expirer) Start(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("deadline expirer started",
		zap.Duration("interval", e.interval),
	)

	e.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("deadline expirer stopped")
			return
		case <-ticker.C:
			e.RunOnce(ctx)
		}
	}
}

func (e *Expirer) RunOnce(ctx context.Context) int64 {
	dbCtx, cancel := context.WithTimeout(ctx, expireTimeout)
	defer cancel()

	today := e.now().UTC().Truncate(24 * time.Hour)

	n, err := e.store.DeactivateExpiredJobs(dbCtx, today)
	if err != nil {
		e.logger.Error("failed to deactivate expired jobs", zap.Error(err))
		return 0
	}

	if n > 0 {
		e.logger.Info("expired jobs deactivated",
			zap.Int64("count", n),
			zap.String("before", today.Format("2006-01-02")),
		)
	} else {
		e.logger.Debug("no expired jobs")
	}

	return n
}
