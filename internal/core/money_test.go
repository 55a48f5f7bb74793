package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"-1", "-1", true},
		{"0", "0", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"1e3", "", false},
		{"1E-2", "", false},
		{"1e400", "", false},
		{"999999999.99", "999999999.99", true},
		{"1000000000", "", false},
		{"-1000000000", "", false},
		{"0.123456789012345", "0.123456789012345", true},
		{"0.1234567890123456", "", false},
		{"120000000", "120000000", true},
		{"0.00000000000001", "0.00000000000001", true},
	}
	for _, tc := range cases {
		got, err := ParseNumber(ColPrice, tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrValidation, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.out, got.String(), "input %q", tc.in)
	}
}

func TestNumberOr(t *testing.T) {
	got, err := NumberOr(ColQuantity, "", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1)))

	got, err = NumberOr(ColQuantity, "4", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(4)))

	_, err = NumberOr(ColQuantity, "four", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckStored(t *testing.T) {
	assert.NoError(t, CheckStored(ColTotal, decimal.RequireFromString("-999999999999999000")))
	assert.NoError(t, CheckStored(ColTotal, decimal.RequireFromString("0.123456789012345000")))
	assert.ErrorIs(t, CheckStored(ColTotal, decimal.RequireFromString("0.1234567890123456")), ErrValidation)
	assert.ErrorIs(t, CheckStored(ColTotal, MaxStored), ErrValidation)
	assert.ErrorIs(t, CheckStored(ColTotal, decimal.New(-1, 400)), ErrValidation)
}
