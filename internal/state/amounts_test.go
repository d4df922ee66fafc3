package state

import (
	"database/sql"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountArg(t *testing.T) {
	assert.Equal(t, "0", amountArg(sdkmath.Int{}))
	assert.Equal(t, "1234", amountArg(sdkmath.NewInt(1234)))

	big, ok := sdkmath.NewIntFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.True(t, ok)
	assert.Equal(t, big.String(), amountArg(big))
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("profit", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", v.String())

	_, err = parseAmount("profit", "4.2")
	assert.ErrorContains(t, err, "profit")

	_, err = parseAmount("loss", "")
	assert.ErrorContains(t, err, "loss")
}

func TestAmountColumns_Decode(t *testing.T) {
	var (
		a            amountColumns
		profit, loss sdkmath.Int
		debtPayment  sdkmath.Int
	)
	a.add("profit", &profit)
	a.add("loss", &loss)
	a.add("debt_payment", &debtPayment)

	args := a.scanArgs()
	require.Len(t, args, 3)
	*args[0].(*sql.NullString) = sql.NullString{String: "37", Valid: true}
	*args[2].(*sql.NullString) = sql.NullString{String: "1000", Valid: true}

	require.NoError(t, a.decode())
	assert.Equal(t, "37", profit.String())
	assert.Equal(t, "0", loss.String(), "NULL decodes to zero")
	assert.Equal(t, "1000", debtPayment.String())

	*args[1].(*sql.NullString) = sql.NullString{String: "abc", Valid: true}
	assert.ErrorContains(t, a.decode(), "loss")
}
