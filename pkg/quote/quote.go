// Package quote implements the deterministic pricing function for
// intents. All arithmetic is exact big.Int; intermediate values are
// never represented as floating point, so results stay bit-exact at
// any magnitude.
package quote

import (
	"math/big"

	"github.com/intentswap/settler/pkg/models"
)

// Stable rejection reasons reported on invalid quotes.
const (
	ReasonNoPrice    = "no price configured"
	ReasonBelowFloor = "quote below minimum output"
)

// bpsDenominator converts basis points to a fraction of gross output.
var bpsDenominator = big.NewInt(10000)

// Compute prices an intent against the table. It is pure: no I/O, no
// randomness, no mutation of its inputs.
//
// gross = floor(amountIn * num / den); if gross meets the intent's
// minimum, fee = floor(gross * feeBps / 10000) and the creator
// receives gross - fee. A rejected quote charges no fee and reports
// the computed gross for diagnostics.
func Compute(intent models.Intent, table Table) models.Quote {
	rate, ok := table[PairKey(intent.TokenIn, intent.TokenOut)]
	if !ok {
		return models.Quote{
			GrossAmountOut:   "0",
			SolverFee:        "0",
			CreatorAmountOut: "0",
			Valid:            false,
			Reason:           ReasonNoPrice,
		}
	}

	amountIn, ok := new(big.Int).SetString(intent.AmountIn, 10)
	if !ok {
		return models.Quote{
			GrossAmountOut:   "0",
			SolverFee:        "0",
			CreatorAmountOut: "0",
			Valid:            false,
			Reason:           "invalid amountIn",
		}
	}
	minAmountOut, ok := new(big.Int).SetString(intent.MinAmountOut, 10)
	if !ok {
		return models.Quote{
			GrossAmountOut:   "0",
			SolverFee:        "0",
			CreatorAmountOut: "0",
			Valid:            false,
			Reason:           "invalid minAmountOut",
		}
	}

	// Multiply before dividing so the floor is taken exactly once.
	gross := new(big.Int).Mul(amountIn, rate.Num)
	gross.Quo(gross, rate.Den)

	if gross.Cmp(minAmountOut) < 0 {
		return models.Quote{
			GrossAmountOut:   gross.String(),
			SolverFee:        "0",
			CreatorAmountOut: gross.String(),
			Valid:            false,
			Reason:           ReasonBelowFloor,
		}
	}

	fee := new(big.Int).Mul(gross, big.NewInt(int64(intent.SolverFeeBps)))
	fee.Quo(fee, bpsDenominator)
	creatorOut := new(big.Int).Sub(gross, fee)

	return models.Quote{
		GrossAmountOut:   gross.String(),
		SolverFee:        fee.String(),
		CreatorAmountOut: creatorOut.String(),
		Valid:            true,
	}
}
