package utils

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulBps(t *testing.T) {
	tests := []struct {
		amount int64
		bps    uint64
		want   string
	}{
		{1000, 100, "10"},
		{999, 100, "9"}, // floor
		{1000, 10_000, "1000"},
		{1000, 0, "0"},
		{0, 500, "0"},
		{1, 9_999, "0"},
	}
	for _, tc := range tests {
		got := MulBps(sdkmath.NewInt(tc.amount), tc.bps)
		assert.Equal(t, tc.want, got.String(), "amount=%d bps=%d", tc.amount, tc.bps)
	}
}

func TestValidateBps(t *testing.T) {
	assert.NoError(t, ValidateBps(0))
	assert.NoError(t, ValidateBps(10_000))
	assert.ErrorIs(t, ValidateBps(10_001), ErrBpsOutOfRange)
}

func TestSubFloorZero(t *testing.T) {
	assert.Equal(t, "0", SubFloorZero(sdkmath.NewInt(5), sdkmath.NewInt(7)).String())
	assert.Equal(t, "0", SubFloorZero(sdkmath.NewInt(7), sdkmath.NewInt(7)).String())
	assert.Equal(t, "2", SubFloorZero(sdkmath.NewInt(9), sdkmath.NewInt(7)).String())
}

func TestSDKIntFloatRoundTrip(t *testing.T) {
	amt, err := Float64ToSDKInt(1.5, 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", amt.String())

	f, err := SDKIntToFloat64(amt, 18)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 1e-12)
}

func TestConversionErrors(t *testing.T) {
	_, err := SDKIntToFloat64(sdkmath.NewInt(1), 19)
	assert.ErrorIs(t, err, ErrInvalidPrecision)

	_, err = SDKIntToFloat64(sdkmath.NewInt(-1), 6)
	assert.ErrorIs(t, err, ErrAmountNegative)

	_, err = Float64ToSDKInt(math.NaN(), 6)
	assert.ErrorIs(t, err, ErrNotFinite)

	_, err = Float64ToSDKInt(-1, 6)
	assert.ErrorIs(t, err, ErrAmountNegative)

	zero, err := Float64ToSDKInt(0, 6)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}
