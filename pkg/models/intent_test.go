package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validParams() CreateIntentParams {
	return CreateIntentParams{
		IntentType:   IntentTypeSwap,
		TokenIn:      "STTEST.token-a",
		TokenOut:     "STTEST.token-b",
		AmountIn:     "100000",
		MinAmountOut: "97000",
		Deadline:     1000,
		SolverFeeBps: 30,
	}
}

func TestCreateIntentParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateIntentParams)
		wantErr bool
	}{
		{
			name:    "valid params",
			mutate:  func(*CreateIntentParams) {},
			wantErr: false,
		},
		{
			name:    "unknown intent type",
			mutate:  func(p *CreateIntentParams) { p.IntentType = "loan" },
			wantErr: true,
		},
		{
			name:    "short tokenIn",
			mutate:  func(p *CreateIntentParams) { p.TokenIn = "ab" },
			wantErr: true,
		},
		{
			name:    "non-numeric amountIn",
			mutate:  func(p *CreateIntentParams) { p.AmountIn = "12.5" },
			wantErr: true,
		},
		{
			name:    "negative amountIn",
			mutate:  func(p *CreateIntentParams) { p.AmountIn = "-1" },
			wantErr: true,
		},
		{
			name:    "empty minAmountOut",
			mutate:  func(p *CreateIntentParams) { p.MinAmountOut = "" },
			wantErr: true,
		},
		{
			name:    "zero deadline",
			mutate:  func(p *CreateIntentParams) { p.Deadline = 0 },
			wantErr: true,
		},
		{
			name:    "negative fee",
			mutate:  func(p *CreateIntentParams) { p.SolverFeeBps = -1 },
			wantErr: true,
		},
		{
			name:    "fee above 10000",
			mutate:  func(p *CreateIntentParams) { p.SolverFeeBps = 10001 },
			wantErr: true,
		},
		{
			name:    "fee at the bound is allowed",
			mutate:  func(p *CreateIntentParams) { p.SolverFeeBps = 10000 },
			wantErr: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)

			err := params.Validate()
			if tc.wantErr {
				assert.Error(t, err)
				var validationErr *ValidationError
				assert.ErrorAs(t, err, &validationErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	tests := []struct {
		name     string
		stored   IntentStatus
		deadline int64
		now      int64
		want     IntentStatus
	}{
		{"open before deadline", StatusOpen, 100, 50, StatusOpen},
		{"open at deadline", StatusOpen, 100, 100, StatusOpen},
		{"open past deadline", StatusOpen, 100, 101, StatusExpired},
		{"filled never expires", StatusFilled, 100, 200, StatusFilled},
		{"canceled never expires", StatusCanceled, 100, 200, StatusCanceled},
		{"expired stays expired", StatusExpired, 100, 50, StatusExpired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EffectiveStatus(tc.stored, tc.deadline, tc.now))
		})
	}
}

func TestWithEffectiveStatusDoesNotMutate(t *testing.T) {
	intent := Intent{ID: 1, Status: StatusOpen, Deadline: 10}

	derived := intent.WithEffectiveStatus(20)
	assert.Equal(t, StatusExpired, derived.Status)
	// The original value is untouched; expiry is derived, not stored.
	assert.Equal(t, StatusOpen, intent.Status)
}

func TestIsAmountString(t *testing.T) {
	assert.True(t, IsAmountString("0"))
	assert.True(t, IsAmountString("100000"))
	assert.False(t, IsAmountString(""))
	assert.False(t, IsAmountString("1e9"))
	assert.False(t, IsAmountString(" 1"))
	assert.False(t, IsAmountString("0x10"))
}
