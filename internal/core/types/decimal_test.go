package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityConstruction(t *testing.T) {
	assert.Equal(t, Quantity(25_000), NewQuantityFromFloat64(2.5))
	assert.Equal(t, Quantity(25_000), NewQuantityFromInt64Scaled(25_000))
	assert.Equal(t, Quantity(30_000), NewQuantityFromInt(3))

	// Rounding at the fourth decimal, not truncation.
	assert.Equal(t, Quantity(1), NewQuantityFromFloat64(0.00009))
}

func TestQuantityArithmetic(t *testing.T) {
	q := NewQuantityFromInt(5)

	assert.True(t, q.IsPositive())
	assert.True(t, q.Neg().IsNegative())
	assert.Equal(t, q, q.Neg().Abs())
	assert.Equal(t, NewQuantityFromInt(3), q.Min(NewQuantityFromInt(3)))
	assert.Equal(t, q, q.Min(NewQuantityFromInt(8)))
	assert.True(t, Quantity(0).IsZero())
}

func TestQuantityMulMoney(t *testing.T) {
	q := NewQuantityFromFloat64(2.5)
	price := MustMoney("10.40")

	assert.True(t, MustMoney("26").Equal(q.MulMoney(price)))
}

func TestQuantityString(t *testing.T) {
	assert.Equal(t, "2.5000", NewQuantityFromFloat64(2.5).String())
	assert.Equal(t, "-0.7500", NewQuantityFromFloat64(-0.75).String())
	assert.Equal(t, "0.0000", Quantity(0).String())
}

func TestQuantityJSON(t *testing.T) {
	data, err := json.Marshal(NewQuantityFromFloat64(12.25))
	require.NoError(t, err)
	assert.Equal(t, "12.2500", string(data))

	var q Quantity
	require.NoError(t, json.Unmarshal([]byte(`"3.5"`), &q))
	assert.Equal(t, NewQuantityFromFloat64(3.5), q)

	require.NoError(t, json.Unmarshal([]byte(`-1.25`), &q))
	assert.Equal(t, NewQuantityFromFloat64(-1.25), q)

	require.NoError(t, json.Unmarshal([]byte(`null`), &q))
	assert.True(t, q.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &q))
}

func TestMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("19.99")
	require.NoError(t, err)
	assert.True(t, MustMoney("19.99").Equal(m))

	_, err = NewMoneyFromString("not-a-number")
	assert.Error(t, err)
}
