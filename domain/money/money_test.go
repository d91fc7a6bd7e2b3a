package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSub(t *testing.T) {
	a := FromUnits(10, 50)
	b := FromCents(250)

	assert.Equal(t, FromCents(1300), a.Add(b))

	got, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, FromCents(800), got)

	_, err = b.Sub(a)
	assert.ErrorIs(t, err, ErrNegativeResult)
}

func TestMulScalar(t *testing.T) {
	tests := []struct {
		name   string
		amount Money
		factor float64
		want   Money
	}{
		{"whole hours", FromUnits(75, 0), 10, FromUnits(750, 0)},
		{"half split", FromUnits(1000, 0), 0.5, FromUnits(500, 0)},
		{"fractional hours", FromUnits(60, 0), 2.5, FromUnits(150, 0)},
		{"rounds half up", FromCents(101), 0.5, FromCents(51)},
		{"rounds down below half", FromCents(100), 0.333, FromCents(33)},
		{"zero factor", FromUnits(99, 99), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.amount.MulScalar(tt.factor))
		})
	}
}

// Repeated computation of 10h x $75.00 must yield $750.00 exactly every time;
// a float-backed representation would eventually drift.
func TestMulScalarStable(t *testing.T) {
	rate := FromUnits(75, 0)
	for i := 0; i < 1000; i++ {
		require.Equal(t, FromUnits(750, 0), rate.MulScalar(10))
	}
}

func TestCmp(t *testing.T) {
	assert.Equal(t, -1, FromCents(1).Cmp(FromCents(2)))
	assert.Equal(t, 0, FromCents(2).Cmp(FromCents(2)))
	assert.Equal(t, 1, FromCents(3).Cmp(FromCents(2)))
}

func TestString(t *testing.T) {
	assert.Equal(t, "$12.34", FromUnits(12, 34).String())
	assert.Equal(t, "$0.05", FromCents(5).String())
	assert.Equal(t, "-$0.50", Money(-50).String())
	assert.Equal(t, "$0.00", Money(0).String())
}
