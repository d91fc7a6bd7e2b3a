// Package money provides a fixed-point monetary value type.
// All amounts in the system are integer minor units (cents); no component
// performs floating-point arithmetic on money.
package money

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeResult is returned when a subtraction would produce a negative
// amount in a balance-bearing context.
var ErrNegativeResult = errors.New("money: negative result")

// Money is a monetary amount in minor units (cents).
type Money int64

// FromCents creates a Money value from an amount in minor units.
func FromCents(cents int64) Money {
	return Money(cents)
}

// FromUnits creates a Money value from whole units and remaining cents,
// e.g. FromUnits(12, 34) == $12.34.
func FromUnits(units, cents int64) Money {
	return Money(units*100 + cents)
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return int64(m)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return m + o
}

// Sub returns m - o, or ErrNegativeResult if the result would be negative.
func (m Money) Sub(o Money) (Money, error) {
	if o > m {
		return 0, ErrNegativeResult
	}
	return m - o, nil
}

// MulScalar multiplies the amount by a scalar factor, rounding half-up to the
// nearest minor unit. Used for hours x rate and for the commission split.
func (m Money) MulScalar(f float64) Money {
	return Money(math.Floor(float64(m)*f + 0.5))
}

// Cmp compares m and o: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	switch {
	case m < o:
		return -1
	case m > o:
		return 1
	default:
		return 0
	}
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m > 0
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m == 0
}

// String formats the amount as a dollar string, e.g. "$12.34" or "-$0.50".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
