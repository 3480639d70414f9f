// Package ledger provides access to the ledger of record for intents.
// Two implementations exist: MemoryLedger, an in-process reference
// ledger that enforces the full state-machine contract, and
// ChainLedger, which speaks to an on-chain intents contract.
package ledger

import (
	"context"

	"github.com/intentswap/settler/pkg/models"
)

// Adapter is the contract every ledger of record must satisfy. The
// adapter exclusively owns intent storage: it is the only component
// allowed to mutate Status, AmountOut, Solver and LastTxID.
//
// Every read path returns intents with their status reconciled
// against the adapter's current time/height, so a stored "open" past
// its deadline is always reported as expired without a write.
// Mutations are atomic per intent: of two concurrent Fill calls on
// the same id, exactly one succeeds and the other observes
// models.ErrInvalidState.
type Adapter interface {
	// Get returns the intent with the given id, or models.ErrNotFound.
	Get(ctx context.Context, id int64) (models.Intent, error)

	// List returns up to limit intents starting at offset, in
	// ascending id order. Each returned intent is a consistent
	// snapshot; listing never blocks on writers of other intents.
	List(ctx context.Context, offset, limit int) ([]models.Intent, error)

	// Create records a new open intent and assigns its id. Malformed
	// parameters fail with *models.ValidationError before any state
	// changes.
	Create(ctx context.Context, creator string, params models.CreateIntentParams) (models.Intent, error)

	// Cancel transitions an effectively-open intent to canceled.
	// Fails with models.ErrNotFound, models.ErrNotAuthorized when the
	// requester is not the creator, or models.ErrInvalidState.
	Cancel(ctx context.Context, id int64, requester string) (models.Intent, error)

	// Fill settles an effectively-open intent at quotedAmountOut,
	// crediting the named solver. Fails with models.ErrNotFound,
	// models.ErrInvalidState, or models.ErrQuoteRejected when the
	// quoted amount is below the intent's floor.
	Fill(ctx context.Context, id int64, solver, quotedAmountOut, routeID string) (models.Intent, error)

	// CurrentTime returns the ledger's current time or block height,
	// the unit deadlines are denominated in for this adapter.
	CurrentTime(ctx context.Context) (int64, error)
}
