package util

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		expected string
		wantErr  bool
	}{
		{name: "whole USDC", amount: "100", decimals: 6, expected: "100000000"},
		{name: "fractional USDC", amount: "0.5", decimals: 6, expected: "500000"},
		{name: "full precision", amount: "1.234567", decimals: 6, expected: "1234567"},
		{name: "eighteen decimals", amount: "1", decimals: 18, expected: "1000000000000000000"},
		{name: "leading dot", amount: ".25", decimals: 2, expected: "25"},
		{name: "trailing dot", amount: "7.", decimals: 2, expected: "700"},
		{name: "zero", amount: "0", decimals: 18, expected: "0"},
		{name: "zero decimals", amount: "42", decimals: 0, expected: "42"},
		{name: "excess precision rejected", amount: "1.2345678", decimals: 6, wantErr: true},
		{name: "fraction on zero-decimal token", amount: "1.5", decimals: 0, wantErr: true},
		{name: "empty", amount: "", decimals: 6, wantErr: true},
		{name: "negative", amount: "-1", decimals: 6, wantErr: true},
		{name: "explicit plus sign", amount: "+1.5", decimals: 6, wantErr: true},
		{name: "scientific notation", amount: "1e5", decimals: 6, wantErr: true},
		{name: "two dots", amount: "1.2.3", decimals: 6, wantErr: true},
		{name: "garbage", amount: "abc", decimals: 6, wantErr: true},
		{name: "bare dot", amount: ".", decimals: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		expected string
	}{
		{name: "whole", amount: big.NewInt(100000000), decimals: 6, expected: "100"},
		{name: "fractional", amount: big.NewInt(500000), decimals: 6, expected: "0.5"},
		{name: "trailing zeros trimmed", amount: big.NewInt(1230000), decimals: 6, expected: "1.23"},
		{name: "smaller than one unit", amount: big.NewInt(1), decimals: 18, expected: "0.000000000000000001"},
		{name: "nil", amount: nil, decimals: 6, expected: "0"},
		{name: "zero", amount: big.NewInt(0), decimals: 6, expected: "0"},
		{name: "zero decimals", amount: big.NewInt(42), decimals: 0, expected: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, FromBaseUnits(tt.amount, tt.decimals))
		})
	}
}

func TestRoundTripAtTokenPrecision(t *testing.T) {
	for _, amount := range []string{"1", "0.000001", "123456.789", "0.5"} {
		base, err := ToBaseUnits(amount, 6)
		require.NoError(t, err)
		back, err := ToBaseUnits(FromBaseUnits(base, 6), 6)
		require.NoError(t, err)
		require.Zero(t, base.Cmp(back), "amount %s", amount)
	}
}
