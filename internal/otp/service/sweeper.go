package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSweepInterval is used when NewExpirationSweeper is given a
// non-positive interval.
const DefaultSweepInterval = time.Minute

type expirer interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// ExpirationSweeper periodically moves stale ACTIVE codes to EXPIRED, so
// codes nobody tries to validate still leave the ACTIVE set.
type ExpirationSweeper struct {
	Engine   expirer
	Logger   *slog.Logger
	Interval time.Duration

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewExpirationSweeper(engine expirer, logger *slog.Logger, interval time.Duration) *ExpirationSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ExpirationSweeper{
		Engine:   engine,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background loop. The first sweep runs one interval
// after Start. Calling Start more than once has no effect.
func (s *ExpirationSweeper) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("expiration sweeper started", "interval", s.Interval)
}

// Stop prevents further sweeps and waits for one in progress to finish. It is
// safe to call more than once, and before Start.
func (s *ExpirationSweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.started.Load() {
			<-s.doneCh
		}
		s.Logger.Info("expiration sweeper stopped")
	})
}

func (s *ExpirationSweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Stop may race the tick; prefer stopping.
			select {
			case <-s.stopCh:
				return
			default:
			}
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep runs one pass. Failures and panics are logged, never propagated.
func (s *ExpirationSweeper) sweep() {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("expiration sweep panicked", "panic", r)
		}
	}()

	n, err := s.Engine.SweepExpired(context.Background())
	if err != nil {
		s.Logger.Error("expiration sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.Logger.Info("expired stale otps", "count", n)
	} else {
		s.Logger.Debug("expiration sweep found nothing to expire")
	}
}
