// Package scheduler runs the periodic jobs: fever-time sweeps for every
// consumption challenge type and retries of queued deposit refunds.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dongibuyeo/dongibuyeo/internal/bank"
	"github.com/dongibuyeo/dongibuyeo/internal/challenge"
	"github.com/dongibuyeo/dongibuyeo/internal/model"
)

type Sweeper interface {
	RewardNonConsumptionDuringFeverTime(ctx context.Context, ctype model.ChallengeType, transferType bank.TransferType) (*challenge.SweepResult, error)
}

type RefundRetrier interface {
	RetryPending(ctx context.Context, limit int) (done, failed int, err error)
}

type Config struct {
	FeverInterval  time.Duration
	RefundInterval time.Duration
	RefundBatch    int
}

// Scheduler periodically sweeps fever windows and retries refunds.
type Scheduler struct {
	mu      sync.RWMutex
	sweeper Sweeper
	refunds RefundRetrier
	cfg     Config
	onSweep func(*challenge.SweepResult)
	logger  *slog.Logger
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(sweeper Sweeper, refunds RefundRetrier, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.FeverInterval <= 0 {
		cfg.FeverInterval = time.Hour
	}
	if cfg.RefundInterval <= 0 {
		cfg.RefundInterval = time.Minute
	}
	if cfg.RefundBatch <= 0 {
		cfg.RefundBatch = 50
	}
	return &Scheduler{
		sweeper: sweeper,
		refunds: refunds,
		cfg:     cfg,
		logger:  logger.With("component", "scheduler"),
	}
}

// OnSweep registers fn to receive every successful sweep result.
func (s *Scheduler) OnSweep(fn func(*challenge.SweepResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSweep = fn
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		fever := time.NewTicker(s.cfg.FeverInterval)
		defer fever.Stop()
		refunds := time.NewTicker(s.cfg.RefundInterval)
		defer refunds.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-fever.C:
				s.SweepAll(ctx)
			case <-refunds.C:
				s.RetryRefunds(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// SweepAll runs the fever sweep of every consumption challenge type. A
// failing type is logged and does not stop the others.
func (s *Scheduler) SweepAll(ctx context.Context) []*challenge.SweepResult {
	s.mu.RLock()
	onSweep := s.onSweep
	s.mu.RUnlock()

	var results []*challenge.SweepResult
	for _, ctype := range model.ChallengeTypes {
		ttype, ok := challenge.FeverTransferTypes[ctype]
		if !ok {
			continue
		}
		res, err := s.sweeper.RewardNonConsumptionDuringFeverTime(ctx, ctype, ttype)
		if err != nil {
			s.logger.Error("fever sweep failed", "challenge_type", ctype, "error", err)
			continue
		}
		results = append(results, res)
		if onSweep != nil && len(res.Credits) > 0 {
			onSweep(res)
		}
	}
	return results
}

// RetryRefunds re-attempts one batch of pending refunds.
func (s *Scheduler) RetryRefunds(ctx context.Context) {
	done, failed, err := s.refunds.RetryPending(ctx, s.cfg.RefundBatch)
	if err != nil {
		s.logger.Error("refund retry failed", "error", err)
		return
	}
	if done > 0 || failed > 0 {
		s.logger.Info("refund retry", "done", done, "failed", failed)
	}
}
