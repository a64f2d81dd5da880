package fixedn

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScale(t *testing.T) {
	testCases := []struct {
		amount   int64
		decimals int
		expected string
	}{
		{1, 18, "1000000000000000000"},
		{100, 18, "100000000000000000000"},
		{-42, 6, "-42000000"},
		{0, 18, "0"},
		{7, 0, "7"},
		{math.MaxInt64, 18, "9223372036854775807000000000000000000"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, ScaleInt64(tc.amount, tc.decimals).String())
	}
}

func TestScaleRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 9000, 100000000, -10945, math.MaxInt64, math.MinInt64}
	for _, d := range []int{0, 1, 6, 8, 18, 36} {
		for _, v := range values {
			scaled := ScaleInt64(v, d)
			back, err := UnscaleInt64(scaled, d)
			require.NoError(t, err)
			require.Equal(t, v, back, "value %d, decimals %d", v, d)
			require.Equal(t, big.NewInt(v), Unscale(scaled, d))
		}
	}
}

func TestUnscaleTruncates(t *testing.T) {
	v, ok := new(big.Int).SetString("1999999999999999999", 10)
	require.True(t, ok)
	n, err := UnscaleInt64(v, DefaultDecimals)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = UnscaleInt64(new(big.Int).Neg(v), DefaultDecimals)
	require.NoError(t, err)
	require.Equal(t, int64(-1), n)
}

func TestUnscaleOverflow(t *testing.T) {
	v := Scale(new(big.Int).Lsh(big.NewInt(1), 64), 18)
	_, err := UnscaleInt64(v, 18)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestScaleNegativeDecimals(t *testing.T) {
	require.Panics(t, func() { ScaleInt64(1, -1) })
	require.Panics(t, func() { Unscale(big.NewInt(1), -3) })
}

func TestFromString(t *testing.T) {
	testCases := []struct {
		in       string
		prec     int
		expected string
	}{
		{"1", 18, "1000000000000000000"},
		{"1.5", 18, "1500000000000000000"},
		{"0.000000000000000001", 18, "1"},
		{"-0.01", 2, "-1"},
		{"-0.5", 1, "-5"},
		{".25", 2, "25"},
		{"+3", 0, "3"},
		{"123456789.12345678", 8, "12345678912345678"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			v, err := FromString(tc.in, tc.prec)
			require.NoError(t, err)
			require.Equal(t, tc.expected, v.String())
		})
	}

	errCases := []struct {
		in   string
		prec int
	}{
		{"", 18},
		{"90n1", 8},
		{"90.1s", 8},
		{"1.", 8},
		{".", 8},
		{"1.-5", 8},
		{"1.+5", 8},
		{"--1", 8},
		{"0.123", 2},
	}
	for _, tc := range errCases {
		_, err := FromString(tc.in, tc.prec)
		assert.Error(t, err, tc.in)
	}
}

func TestToString(t *testing.T) {
	testCases := []struct {
		in       string
		prec     int
		expected string
	}{
		{"1000000000000000000", 18, "1"},
		{"1500000000000000000", 18, "1.5"},
		{"1", 18, "0.000000000000000001"},
		{"-5", 1, "-0.5"},
		{"0", 18, "0"},
		{"12345678912345678", 8, "123456789.12345678"},
		{"42", 0, "42"},
	}
	for _, tc := range testCases {
		v, ok := new(big.Int).SetString(tc.in, 10)
		require.True(t, ok)
		require.Equal(t, tc.expected, ToString(v, tc.prec))

		back, err := FromString(tc.expected, tc.prec)
		require.NoError(t, err)
		require.Equal(t, v, back)
	}
}
