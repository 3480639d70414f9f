package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/intentswap/settler/pkg/models"
)

// MemoryLedger is the in-process reference ledger. It keeps intents
// behind a two-level lock: an RWMutex guarding the map and id counter,
// and one mutex per intent so unrelated intents can be mutated
// concurrently while a contended intent admits exactly one writer.
type MemoryLedger struct {
	mu      sync.RWMutex
	intents map[int64]*entry
	nextID  int64

	// now supplies the ledger's current time. Defaults to unix
	// seconds, which conflates height and timestamp the way the
	// deployed reference ledger does; tests override it.
	now func() int64
}

// entry pairs an intent with its own lock. The entry lock serializes
// all mutation and snapshotting of this one intent.
type entry struct {
	mu     sync.Mutex
	intent models.Intent
}

var _ Adapter = (*MemoryLedger)(nil)

// NewMemoryLedger creates an empty reference ledger whose clock is
// wall-clock unix seconds.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		intents: make(map[int64]*entry),
		nextID:  1,
		now:     func() int64 { return time.Now().Unix() },
	}
}

// Seed loads the demo fixtures: one open swap intent and one yield
// intent that is already past its deadline.
func (l *MemoryLedger) Seed() {
	now := l.now()

	l.insert(models.Intent{
		Creator:      "ST2J8EVYHPJ5F36W7P5N4A5M4EXAMPLE1",
		IntentType:   models.IntentTypeSwap,
		TokenIn:      "STTEST.token-a",
		TokenOut:     "STTEST.token-b",
		AmountIn:     "100000",
		MinAmountOut: "97000",
		Deadline:     now + 1800,
		SolverFeeBps: 30,
		Status:       models.StatusOpen,
		AmountOut:    "0",
		CreatedAt:    now - 120,
		LastTxID:     "mock-seed-open-1",
	})
	l.insert(models.Intent{
		Creator:      "ST2J8EVYHPJ5F36W7P5N4A5M4EXAMPLE2",
		IntentType:   models.IntentTypeYield,
		TokenIn:      "STTEST.token-b",
		TokenOut:     "STTEST.token-a",
		AmountIn:     "250000",
		MinAmountOut: "240000",
		Deadline:     now - 60,
		SolverFeeBps: 15,
		Status:       models.StatusOpen,
		AmountOut:    "0",
		CreatedAt:    now - 3600,
		LastTxID:     "mock-seed-expired-2",
	})
}

// insert assigns the next id and stores the intent.
func (l *MemoryLedger) insert(intent models.Intent) models.Intent {
	l.mu.Lock()
	defer l.mu.Unlock()

	intent.ID = l.nextID
	l.nextID++
	l.intents[intent.ID] = &entry{intent: intent}
	return intent
}

// lookup fetches the entry for an id under the map read lock.
func (l *MemoryLedger) lookup(id int64) (*entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.intents[id]
	return e, ok
}

// Get returns a snapshot of the intent with its effective status.
func (l *MemoryLedger) Get(_ context.Context, id int64) (models.Intent, error) {
	e, ok := l.lookup(id)
	if !ok {
		return models.Intent{}, models.ErrNotFound
	}

	e.mu.Lock()
	snapshot := e.intent
	e.mu.Unlock()

	return snapshot.WithEffectiveStatus(l.now()), nil
}

// List returns intents in ascending id order, each a per-intent
// consistent snapshot with effective status applied. Only the map
// read lock and one entry lock at a time are held, so listing never
// blocks writers of other intents.
func (l *MemoryLedger) List(_ context.Context, offset, limit int) ([]models.Intent, error) {
	if offset < 0 || limit < 0 {
		return nil, &models.ValidationError{Message: "offset and limit must be non-negative"}
	}

	l.mu.RLock()
	ids := make([]int64, 0, len(l.intents))
	for id := range l.intents {
		ids = append(ids, id)
	}
	l.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if offset >= len(ids) {
		return []models.Intent{}, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}

	now := l.now()
	page := make([]models.Intent, 0, end-offset)
	for _, id := range ids[offset:end] {
		e, ok := l.lookup(id)
		if !ok {
			continue
		}
		e.mu.Lock()
		snapshot := e.intent
		e.mu.Unlock()
		page = append(page, snapshot.WithEffectiveStatus(now))
	}
	return page, nil
}

// Create validates the parameters and records a new open intent.
func (l *MemoryLedger) Create(_ context.Context, creator string, params models.CreateIntentParams) (models.Intent, error) {
	if err := params.Validate(); err != nil {
		return models.Intent{}, err
	}
	if creator == "" {
		return models.Intent{}, &models.ValidationError{Message: "creator is required"}
	}

	now := l.now()
	intent := l.insert(models.Intent{
		Creator:      creator,
		IntentType:   params.IntentType,
		TokenIn:      params.TokenIn,
		TokenOut:     params.TokenOut,
		AmountIn:     params.AmountIn,
		MinAmountOut: params.MinAmountOut,
		Deadline:     params.Deadline,
		SolverFeeBps: params.SolverFeeBps,
		Status:       models.StatusOpen,
		AmountOut:    "0",
		CreatedAt:    now,
		LastTxID:     fmt.Sprintf("mock-create-%d", time.Now().UnixMilli()),
	})
	return intent, nil
}

// Cancel transitions an effectively-open intent to canceled. Only the
// creator may cancel; the authorization check runs before the state
// check so a mismatched requester always sees ErrNotAuthorized.
func (l *MemoryLedger) Cancel(_ context.Context, id int64, requester string) (models.Intent, error) {
	e, ok := l.lookup(id)
	if !ok {
		return models.Intent{}, models.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.intent.Creator != requester {
		return models.Intent{}, models.ErrNotAuthorized
	}
	if models.EffectiveStatus(e.intent.Status, e.intent.Deadline, l.now()) != models.StatusOpen {
		return models.Intent{}, models.ErrInvalidState
	}

	e.intent.Status = models.StatusCanceled
	e.intent.LastTxID = fmt.Sprintf("mock-cancel-%d-%d", id, time.Now().UnixMilli())
	return e.intent, nil
}

// Fill settles an effectively-open intent. The entry lock is held
// across the check-and-set, so of two concurrent fills exactly one
// observes open and transitions it; the other gets ErrInvalidState.
func (l *MemoryLedger) Fill(_ context.Context, id int64, solver, quotedAmountOut, _ string) (models.Intent, error) {
	quoted, ok := new(big.Int).SetString(quotedAmountOut, 10)
	if !ok {
		return models.Intent{}, &models.ValidationError{Message: fmt.Sprintf("quotedAmountOut must be a decimal integer string, got %q", quotedAmountOut)}
	}

	e, found := l.lookup(id)
	if !found {
		return models.Intent{}, models.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if models.EffectiveStatus(e.intent.Status, e.intent.Deadline, l.now()) != models.StatusOpen {
		return models.Intent{}, models.ErrInvalidState
	}

	// Integer comparison against the floor, no rounding tolerance.
	minOut, ok := new(big.Int).SetString(e.intent.MinAmountOut, 10)
	if !ok {
		return models.Intent{}, &models.AdapterError{Op: "fill", Err: fmt.Errorf("stored minAmountOut %q is not an integer", e.intent.MinAmountOut)}
	}
	if quoted.Cmp(minOut) < 0 {
		return models.Intent{}, models.ErrQuoteRejected
	}

	e.intent.Status = models.StatusFilled
	e.intent.AmountOut = quoted.String()
	e.intent.Solver = solver
	e.intent.LastTxID = fmt.Sprintf("mock-fill-%d-%d", id, time.Now().UnixMilli())
	return e.intent, nil
}

// CurrentTime returns the ledger clock. In the reference ledger this
// is unix seconds; deadlines on seeded and created intents use the
// same unit.
func (l *MemoryLedger) CurrentTime(_ context.Context) (int64, error) {
	return l.now(), nil
}
