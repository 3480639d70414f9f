package models

import (
	"fmt"
	"regexp"
)

// IntentType is the kind of outcome an intent requests.
type IntentType string

const (
	// IntentTypeSwap requests an asset swap with a minimum output
	IntentTypeSwap IntentType = "swap"
	// IntentTypeYield requests a yield deployment with a minimum output
	IntentTypeYield IntentType = "yield"
)

// IntentStatus is the stored lifecycle state of an intent.
type IntentStatus string

const (
	// StatusOpen means the intent can still be canceled or filled
	StatusOpen IntentStatus = "open"
	// StatusFilled means a solver settled the intent (terminal)
	StatusFilled IntentStatus = "filled"
	// StatusCanceled means the creator withdrew the intent (terminal)
	StatusCanceled IntentStatus = "canceled"
	// StatusExpired means the deadline passed while open (terminal, derived)
	StatusExpired IntentStatus = "expired"
)

// MaxSolverFeeBps is the upper bound for an intent's solver fee.
const MaxSolverFeeBps = 10000

// Intent is a declarative settlement request recorded on the ledger.
// All creation parameters are immutable once the ledger assigns an id;
// only Status, AmountOut, Solver and LastTxID change afterwards, and
// only through the ledger adapter.
type Intent struct {
	ID           int64        `json:"id"`
	Creator      string       `json:"creator"`
	IntentType   IntentType   `json:"intentType"`
	TokenIn      string       `json:"tokenIn"`
	TokenOut     string       `json:"tokenOut"`
	AmountIn     string       `json:"amountIn"`
	MinAmountOut string       `json:"minAmountOut"`
	Deadline     int64        `json:"deadline"`
	SolverFeeBps int          `json:"solverFeeBps"`
	Status       IntentStatus `json:"status"`
	AmountOut    string       `json:"amountOut"`
	Solver       string       `json:"solver,omitempty"`
	CreatedAt    int64        `json:"createdAt"`
	LastTxID     string       `json:"lastTxId,omitempty"`
}

// CreateIntentParams holds the immutable fields supplied at creation.
type CreateIntentParams struct {
	IntentType   IntentType `json:"intentType"`
	TokenIn      string     `json:"tokenIn"`
	TokenOut     string     `json:"tokenOut"`
	AmountIn     string     `json:"amountIn"`
	MinAmountOut string     `json:"minAmountOut"`
	Deadline     int64      `json:"deadline"`
	SolverFeeBps int        `json:"solverFeeBps"`
}

// amountPattern accepts non-negative integers in decimal-digit form.
// Amounts are kept as strings end to end so they never pass through
// floating point.
var amountPattern = regexp.MustCompile(`^\d+$`)

// IsAmountString reports whether s is a valid decimal amount string.
func IsAmountString(s string) bool {
	return amountPattern.MatchString(s)
}

// Validate checks every immutable field of the creation parameters.
// It returns a *ValidationError describing the first problem found.
func (p CreateIntentParams) Validate() error {
	if p.IntentType != IntentTypeSwap && p.IntentType != IntentTypeYield {
		return &ValidationError{Message: fmt.Sprintf("invalid intent type: %q", p.IntentType)}
	}
	if len(p.TokenIn) < 3 {
		return &ValidationError{Message: "tokenIn must be at least 3 characters"}
	}
	if len(p.TokenOut) < 3 {
		return &ValidationError{Message: "tokenOut must be at least 3 characters"}
	}
	if !IsAmountString(p.AmountIn) {
		return &ValidationError{Message: fmt.Sprintf("amountIn must be a decimal integer string, got %q", p.AmountIn)}
	}
	if !IsAmountString(p.MinAmountOut) {
		return &ValidationError{Message: fmt.Sprintf("minAmountOut must be a decimal integer string, got %q", p.MinAmountOut)}
	}
	if p.Deadline <= 0 {
		return &ValidationError{Message: "deadline must be a positive height"}
	}
	if p.SolverFeeBps < 0 || p.SolverFeeBps > MaxSolverFeeBps {
		return &ValidationError{Message: fmt.Sprintf("solverFeeBps must be in [0, %d], got %d", MaxSolverFeeBps, p.SolverFeeBps)}
	}
	return nil
}

// EffectiveStatus reconciles a stored status against the current
// time/height. An intent stored as open whose deadline has passed is
// reported as expired; terminal states pass through unchanged. Expiry
// is a pure function of time, never a write.
func EffectiveStatus(stored IntentStatus, deadline, now int64) IntentStatus {
	if stored != StatusOpen {
		return stored
	}
	if deadline < now {
		return StatusExpired
	}
	return StatusOpen
}

// WithEffectiveStatus returns a copy of the intent with its status
// reconciled against now. Used by every adapter read path.
func (i Intent) WithEffectiveStatus(now int64) Intent {
	i.Status = EffectiveStatus(i.Status, i.Deadline, now)
	return i
}
