// Package solver implements the dispatch loop that discovers open
// intents, prices them against the internal table, and settles them
// through the ledger adapter.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/intentswap/settler/pkg/circuitbreaker"
	"github.com/intentswap/settler/pkg/ledger"
	"github.com/intentswap/settler/pkg/logger"
	"github.com/intentswap/settler/pkg/metrics"
	"github.com/intentswap/settler/pkg/models"
	"github.com/intentswap/settler/pkg/quote"
)

// RouteID is the fixed routing label attached to every fill this
// solver dispatches.
const RouteID = "internal-amm-v1"

// Config holds the solver's runtime parameters.
type Config struct {
	// SolverID is the identity credited on fills.
	SolverID string
	// Interval between ticks in continuous mode.
	Interval time.Duration
	// PageSize for ledger listing.
	PageSize int
	// MaxPages bounds the listing loop per tick. The cap is a hard
	// stop even if the adapter keeps returning full pages.
	MaxPages int
}

// Solver owns its attempted-intent set and is shared with no one.
// The set is in-memory only and starts empty on every process start;
// that makes a restart able to re-attempt an intent, which the
// ledger's state machine rejects safely.
type Solver struct {
	ledger    ledger.Adapter
	prices    quote.Table
	breaker   *circuitbreaker.Breaker
	logger    logger.Logger
	cfg       Config
	attempted map[int64]struct{}
}

// New creates a solver. The breaker may be nil-op (disabled) but must
// not be nil.
func New(led ledger.Adapter, prices quote.Table, breaker *circuitbreaker.Breaker, lg logger.Logger, cfg Config) *Solver {
	return &Solver{
		ledger:    led,
		prices:    prices,
		breaker:   breaker,
		logger:    lg,
		cfg:       cfg,
		attempted: make(map[int64]struct{}),
	}
}

// Run executes ticks on a fixed period until the context is canceled.
// Tick failures are logged and never terminate the loop.
func (s *Solver) Run(ctx context.Context) {
	s.logger.InfoC(logger.Solver, "running poll loop every %v (attempted-set resets on restart)", s.cfg.Interval)

	// First tick immediately, then on the ticker.
	if err := s.Tick(ctx); err != nil {
		s.logger.ErrorC(logger.Solver, "tick failed: %v", err)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoC(logger.Solver, "shutting down")
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.ErrorC(logger.Solver, "tick failed: %v", err)
			}
		}
	}
}

// RunOnce performs exactly one tick and returns its error.
func (s *Solver) RunOnce(ctx context.Context) error {
	s.logger.InfoC(logger.Solver, "running a single tick")
	return s.Tick(ctx)
}

// Tick runs one discovery/dispatch pass. A returned error means the
// whole tick aborted (adapter connectivity); per-intent failures are
// swallowed after logging and marking the intent attempted.
func (s *Solver) Tick(ctx context.Context) (err error) {
	if s.breaker.IsOpen() {
		s.logger.NoticeC(logger.Solver, "circuit open, skipping tick")
		metrics.SolverTicks.WithLabelValues("skipped").Inc()
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.TickDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			s.breaker.RecordFailure()
			metrics.SolverTicks.WithLabelValues("failed").Inc()
		} else {
			s.breaker.RecordSuccess()
			metrics.SolverTicks.WithLabelValues("ok").Inc()
		}
	}()

	height, err := s.ledger.CurrentTime(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current height: %v", err)
	}
	metrics.LedgerHeight.Set(float64(height))

	intents, err := s.listAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list intents: %v", err)
	}

	open := 0
	for _, intent := range intents {
		// Stop starting new dispatches once shutdown is signaled.
		if ctx.Err() != nil {
			return nil
		}

		if models.EffectiveStatus(intent.Status, intent.Deadline, height) != models.StatusOpen {
			continue
		}
		open++

		if _, seen := s.attempted[intent.ID]; seen {
			continue
		}

		q := quote.Compute(intent, s.prices)
		if !q.Valid {
			metrics.QuoteRejections.WithLabelValues(q.Reason).Inc()
			s.logger.DebugC(logger.Solver, "skipping intent %d: %s", intent.ID, q.Reason)
			continue
		}

		s.dispatch(ctx, intent, q)
	}

	metrics.OpenIntents.Set(float64(open))
	metrics.AttemptedIntents.Set(float64(len(s.attempted)))
	return nil
}

// dispatch sends a single fill and marks the intent attempted no
// matter what happened. This loop never retries an id: a duplicate
// attempt against the ledger of record would be rejected, but the
// accounting ambiguity is not worth it.
func (s *Solver) dispatch(ctx context.Context, intent models.Intent, q models.Quote) {
	s.attempted[intent.ID] = struct{}{}

	filled, err := s.ledger.Fill(ctx, intent.ID, s.cfg.SolverID, q.GrossAmountOut, RouteID)
	if err != nil {
		metrics.FillAttempts.WithLabelValues("failed").Inc()
		s.logger.ErrorC(logger.Solver, "failed to fill intent %d: %v", intent.ID, err)
		return
	}

	metrics.FillAttempts.WithLabelValues("success").Inc()
	s.logger.InfoC(logger.Solver, "filled intent %d with %s (tx=%s)", intent.ID, q.GrossAmountOut, filled.LastTxID)
}

// listAll pages through the ledger until a short page or the page
// cap. The cap guarantees termination even against an adapter that
// keeps returning full pages forever.
func (s *Solver) listAll(ctx context.Context) ([]models.Intent, error) {
	var items []models.Intent
	for page := 0; page < s.cfg.MaxPages; page++ {
		batch, err := s.ledger.List(ctx, page*s.cfg.PageSize, s.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		items = append(items, batch...)
		if len(batch) < s.cfg.PageSize {
			break
		}
	}
	return items, nil
}

// Attempted reports whether the solver has already attempted an id.
// Like the rest of the solver it may only be called from the tick
// goroutine; the attempted set is not guarded by a lock.
func (s *Solver) Attempted(id int64) bool {
	_, ok := s.attempted[id]
	return ok
}
