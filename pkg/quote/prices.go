package quote

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Rate is a rational exchange rate. Both terms are positive integers;
// output = floor(input * Num / Den).
type Rate struct {
	Num *big.Int
	Den *big.Int
}

// Table maps an ordered asset pair key to its rate. Reverse-order
// pairs are distinct keys; the engine never infers one direction from
// the other. Absence of a pair is an expected condition, not an error.
type Table map[string]Rate

// PairKey builds the ordered lookup key for a token pair.
func PairKey(tokenIn, tokenOut string) string {
	return tokenIn + "::" + tokenOut
}

// DefaultTable returns the built-in demo price table: token-a trades
// to token-b at 98/100 and back at 101/100.
func DefaultTable() Table {
	return Table{
		PairKey("STTEST.token-a", "STTEST.token-b"): {Num: big.NewInt(98), Den: big.NewInt(100)},
		PairKey("STTEST.token-b", "STTEST.token-a"): {Num: big.NewInt(101), Den: big.NewInt(100)},
	}
}

// rateJSON is the wire form of a rate inside the PRICE_TABLE
// configuration value. Terms are decimal strings to keep arbitrary
// precision out of float territory.
type rateJSON struct {
	Numerator   string `json:"numerator"`
	Denominator string `json:"denominator"`
}

// ParseTable decodes a price table from its JSON configuration form:
// {"<tokenIn>::<tokenOut>": {"numerator": "98", "denominator": "100"}}.
func ParseTable(raw string) (Table, error) {
	var entries map[string]rateJSON
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("invalid price table JSON: %v", err)
	}

	table := make(Table, len(entries))
	for key, entry := range entries {
		num, ok := new(big.Int).SetString(entry.Numerator, 10)
		if !ok || num.Sign() <= 0 {
			return nil, fmt.Errorf("invalid numerator for pair %s: %q", key, entry.Numerator)
		}
		den, ok := new(big.Int).SetString(entry.Denominator, 10)
		if !ok || den.Sign() <= 0 {
			return nil, fmt.Errorf("invalid denominator for pair %s: %q", key, entry.Denominator)
		}
		table[key] = Rate{Num: num, Den: den}
	}
	return table, nil
}
