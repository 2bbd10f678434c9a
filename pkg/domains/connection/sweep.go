package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"github.com/waassist/connector/pkg/config"
	"github.com/waassist/connector/pkg/gateway"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

const sweepItemTimeout = 45 * time.Second

type SweepResult struct {
	Owners  int `json:"owners"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Sweeper reconciles every known connection on a schedule so status changes
// made outside the application are picked up without a user request.
type Sweeper struct {
	service    Service
	repository Repository
	schedule   string
	pool       *ants.Pool
	sched      *cron.Cron
	running    atomic.Bool
}

func NewSweeper(s Service, r Repository, cfg config.Reconcile) (*Sweeper, error) {
	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(p interface{}) {
		zap.S().Errorf("reconcile worker panic: %v", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create reconcile pool: %w", err)
	}
	return &Sweeper{
		service:    s,
		repository: r,
		schedule:   cfg.Schedule,
		pool:       pool,
		sched:      cron.New(cron.WithParser(cronParser)),
	}, nil
}

func (w *Sweeper) Start() error {
	_, err := w.sched.AddFunc(w.schedule, func() {
		defer func() {
			if r := recover(); r != nil {
				zap.S().Errorf("reconcile sweep panic: %v", r)
			}
		}()
		// a slow sweep must not pile up behind itself
		if !w.running.CompareAndSwap(false, true) {
			zap.L().Debug("reconcile sweep still running, skipping tick")
			return
		}
		defer w.running.Store(false)

		start := time.Now()
		res := w.RunOnce(context.Background())
		sweepDurationHist.Observe(time.Since(start).Seconds())
		zap.L().Info("reconcile sweep finished",
			zap.Int("owners", res.Owners),
			zap.Int("failed", res.Failed),
			zap.Int("skipped", res.Skipped),
			zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", w.schedule, err)
	}
	w.sched.Start()
	zap.L().Info("reconcile sweep scheduled", zap.String("schedule", w.schedule))
	return nil
}

// RunOnce reconciles all owners on the worker pool and waits for them.
// Organizations without gateway credentials are skipped.
func (w *Sweeper) RunOnce(ctx context.Context) SweepResult {
	owners, err := w.repository.Owners(ctx)
	if err != nil {
		zap.L().Error("reconcile sweep: listing connections failed", zap.Error(err))
		return SweepResult{}
	}

	var (
		wg      sync.WaitGroup
		failed  atomic.Int64
		skipped atomic.Int64
	)
	for _, owner := range owners {
		owner := owner
		wg.Add(1)
		err := w.pool.Submit(func() {
			defer wg.Done()
			itemCtx, cancel := context.WithTimeout(ctx, sweepItemTimeout)
			defer cancel()

			_, err := w.service.Reconcile(itemCtx, owner.ProfileID, owner.OrganizationID)
			switch {
			case err == nil:
			case errors.Is(err, gateway.ErrNotConfigured):
				skipped.Add(1)
			default:
				failed.Add(1)
				zap.L().Warn("reconcile sweep: connection failed",
					zap.Uint("profile_id", owner.ProfileID),
					zap.Uint("organization_id", owner.OrganizationID),
					zap.Error(err))
			}
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
			zap.L().Error("reconcile sweep: submit failed", zap.Error(err))
		}
	}
	wg.Wait()

	return SweepResult{
		Owners:  len(owners),
		Failed:  int(failed.Load()),
		Skipped: int(skipped.Load()),
	}
}

func (w *Sweeper) Stop() {
	<-w.sched.Stop().Done()
	w.pool.Release()
}
