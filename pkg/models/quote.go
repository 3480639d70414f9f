package models

// Quote is the result of pricing an intent against the internal price
// table. It is ephemeral and never persisted. Amounts are decimal
// strings like everywhere else on the boundary.
type Quote struct {
	GrossAmountOut   string `json:"grossAmountOut"`
	SolverFee        string `json:"solverFee"`
	CreatorAmountOut string `json:"creatorAmountOut"`
	Valid            bool   `json:"valid"`
	Reason           string `json:"reason,omitempty"`
}
