package state

import (
	"database/sql"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Token amounts are stored as NUMERIC(78, 0), wide enough for any uint256.

func amountArg(v sdkmath.Int) string {
	if v.IsNil() {
		return "0"
	}
	return v.String()
}

func parseAmount(column, raw string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("invalid amount %q in column %s", raw, column)
	}
	return v, nil
}

// amountColumns scans a row of NUMERIC columns into Ints.
type amountColumns struct {
	names []string
	raw   []sql.NullString
	dest  []*sdkmath.Int
}

func (a *amountColumns) add(name string, dest *sdkmath.Int) {
	a.names = append(a.names, name)
	a.raw = append(a.raw, sql.NullString{})
	a.dest = append(a.dest, dest)
}

func (a *amountColumns) scanArgs() []any {
	args := make([]any, len(a.raw))
	for i := range a.raw {
		args[i] = &a.raw[i]
	}
	return args
}

func (a *amountColumns) decode() error {
	for i, raw := range a.raw {
		if !raw.Valid {
			*a.dest[i] = sdkmath.ZeroInt()
			continue
		}
		v, err := parseAmount(a.names[i], raw.String)
		if err != nil {
			return err
		}
		*a.dest[i] = v
	}
	return nil
}
