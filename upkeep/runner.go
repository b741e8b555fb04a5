package upkeep

import (
	"context"
	"time"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Outcome describes the result of a single poll.
type Outcome string

const (
	// OutcomeIdle means no action was due.
	OutcomeIdle Outcome = "idle"
	// OutcomePerformed means a due action was executed.
	OutcomePerformed Outcome = "performed"
	// OutcomeNotReady means the action was no longer due when executed.
	OutcomeNotReady Outcome = "not_ready"
	// OutcomeFailed means the action failed.
	OutcomeFailed Outcome = "failed"
)

// Runner polls an upkeep with a fixed interval.
type Runner struct {
	target   swapkeep.Upkeep
	interval time.Duration
	now      func() time.Time
	logger   log.Logger
	notReady func(error) bool
	observe  func(Outcome)
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock sets the source of the execution time passed to the upkeep.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithNotReady declares which errors mean that the action was no longer
// due. Such errors are expected and retried on the next poll.
func WithNotReady(fn func(error) bool) Option {
	return func(r *Runner) { r.notReady = fn }
}

// WithObserver registers a function called with the outcome of every poll.
func WithObserver(fn func(Outcome)) Option {
	return func(r *Runner) { r.observe = fn }
}

// NewRunner returns a runner polling target every interval.
func NewRunner(target swapkeep.Upkeep, interval time.Duration, opts ...Option) *Runner {
	r := &Runner{
		target:   target,
		interval: interval,
		now:      time.Now,
		logger:   log.NewNopLogger(),
		notReady: func(error) bool { return false },
		observe:  func(Outcome) {},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run polls until the context is cancelled. Failures never stop the runner,
// the upkeep is asked again on the next tick.
func (r *Runner) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return errors.Wrap(errors.ErrInput, "poll interval must be positive")
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Tick(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick executes a single poll and returns its outcome. The error is set
// only for OutcomeFailed and OutcomeNotReady.
func (r *Runner) Tick(ctx context.Context) (Outcome, error) {
	if ctx.Err() != nil {
		return OutcomeIdle, nil
	}
	ctx = swapkeep.WithLogger(swapkeep.WithBlockTime(ctx, r.now()), r.logger)

	due, payload := r.target.IsActionDue(ctx)
	if !due {
		r.observe(OutcomeIdle)
		return OutcomeIdle, nil
	}

	switch err := r.target.PerformAction(ctx, payload); {
	case err == nil:
		r.logger.Info("upkeep performed")
		r.observe(OutcomePerformed)
		return OutcomePerformed, nil
	case r.notReady(err):
		r.logger.Debug("upkeep not ready, retrying on next tick", "err", err)
		r.observe(OutcomeNotReady)
		return OutcomeNotReady, err
	default:
		r.logger.Error("upkeep failed", "err", err)
		r.observe(OutcomeFailed)
		return OutcomeFailed, err
	}
}
