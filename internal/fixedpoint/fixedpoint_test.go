package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestDecimalFromRatio(t *testing.T) {
	tests := []struct {
		name     string
		num, den uint64
		expected string
	}{
		{name: "whole", num: 1000, den: 1, expected: "1000"},
		{name: "twelfth", num: 650, den: 7800, expected: "0.083333333333333333"},
		{name: "farm share per bond", num: 5000, den: 7800, expected: "0.641025641025641025"},
		{name: "zero numerator", num: 0, den: 3, expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DecimalFromRatio(u(tt.num), u(tt.den))
			require.NoError(t, err)
			require.Equal(t, tt.expected, d.String())
		})
	}
}

func TestDecimalFromRatioZeroDenominator(t *testing.T) {
	_, err := DecimalFromRatio(u(1), u(0))
	require.ErrorIs(t, err, ErrDivideByZero)
	require.True(t, IsArithmetic(err))
}

func TestDecimalMulIntFloors(t *testing.T) {
	idx, err := DecimalFromRatio(u(350), u(4200))
	require.NoError(t, err)

	got, err := idx.MulInt(u(4200))
	require.NoError(t, err)
	require.Equal(t, uint64(349), got.Uint64())

	got, err = idx.MulInt(u(2800))
	require.NoError(t, err)
	require.Equal(t, uint64(233), got.Uint64())
}

func TestDecimalSubUnderflow(t *testing.T) {
	_, err := MustParseDecimal("0.1").Sub(MustParseDecimal("0.2"))
	require.ErrorIs(t, err, ErrUnderflow)

	d, err := MustParseDecimal("0.3").Sub(MustParseDecimal("0.1"))
	require.NoError(t, err)
	require.Equal(t, "0.2", d.String())
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in      string
		raw     string
		wantErr bool
	}{
		{in: "0.003", raw: "3000000000000000"},
		{in: "1", raw: "1000000000000000000"},
		{in: "0", raw: "0"},
		{in: "-0.1", wantErr: true},
		{in: "0.0000000000000000001", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDecimal(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.raw, d.Raw().Dec())
		})
	}
}

func TestMulRatio(t *testing.T) {
	got, err := MulRatio(u(1000), u(7800), u(12000))
	require.NoError(t, err)
	require.Equal(t, uint64(650), got.Uint64())

	got, err = MulRatioCeil(u(10), u(1), u(3))
	require.NoError(t, err)
	require.Equal(t, uint64(4), got.Uint64())

	got, err = MulRatioCeil(u(9), u(1), u(3))
	require.NoError(t, err)
	require.Equal(t, uint64(3), got.Uint64())

	_, err = MulRatio(u(1), u(1), u(0))
	require.ErrorIs(t, err, ErrDivideByZero)
}

func TestMulRatioWideIntermediate(t *testing.T) {
	// (2^200 * 2^100) / 2^150 does not fit 256 bits until divided.
	x := new(uint256.Int).Lsh(u(1), 200)
	num := new(uint256.Int).Lsh(u(1), 100)
	den := new(uint256.Int).Lsh(u(1), 150)

	got, err := MulRatio(x, num, den)
	require.NoError(t, err)
	require.Equal(t, new(uint256.Int).Lsh(u(1), 150), got)
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := CheckedSub(u(1), u(2))
	require.ErrorIs(t, err, ErrUnderflow)

	max := new(uint256.Int).SetAllOne()
	_, err = CheckedAdd(max, u(1))
	require.ErrorIs(t, err, ErrOverflow)

	require.True(t, SaturatingSub(u(1), u(2)).IsZero())
	require.Equal(t, uint64(1048808), Isqrt(u(1_100_000_000_000)).Uint64())
}

func TestParseAmount(t *testing.T) {
	z, err := ParseAmount("")
	require.NoError(t, err)
	require.True(t, z.IsZero())

	z, err = ParseAmount("123456789012345678901234567890")
	require.NoError(t, err)
	require.Equal(t, "123456789012345678901234567890", z.Dec())

	_, err = ParseAmount("12a")
	require.Error(t, err)
}
