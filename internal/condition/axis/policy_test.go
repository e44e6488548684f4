package axis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

func TestMakeTicks_MMScale(t *testing.T) {
	ticks := MakeTicks(0, 100, 10)
	assert.Equal(t, []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, ticks)
}

func TestMakeTicks_FractionalSteps(t *testing.T) {
	// body temperature
	ticks := MakeTicks(34, 40, 0.5)
	require.Len(t, ticks, 13)
	assert.Equal(t, 34.0, ticks[0])
	assert.Equal(t, 40.0, ticks[12])

	// urine specific gravity, the floating point drift case
	ticks = MakeTicks(1.000, 1.040, 0.005)
	require.Len(t, ticks, 9)
	assert.Equal(t, 1.0, ticks[0])
	assert.Equal(t, 1.005, ticks[1])
	assert.Equal(t, 1.04, ticks[8])
}

func TestMakeTicks_StartsAtFirstMultiple(t *testing.T) {
	assert.Equal(t, []float64{10, 15, 20}, MakeTicks(7, 22, 5))
	assert.Equal(t, []float64{-4, -2, 0, 2}, MakeTicks(-5, 3, 2))
}

func TestMakeTicks_Inverted(t *testing.T) {
	assert.Equal(t, MakeTicks(0, 12, 1), MakeTicks(12, 0, 1))
}

func TestMakeTicks_NoTicks(t *testing.T) {
	assert.Nil(t, MakeTicks(0, 10, 0))
	assert.Nil(t, MakeTicks(0, 10, -1))
	assert.Nil(t, MakeTicks(0, 10, math.NaN()))
	assert.Nil(t, MakeTicks(0, 10, math.Inf(1)))
	// no multiple of 10 within (1, 9)
	assert.Nil(t, MakeTicks(1, 9, 10))
}

func TestMakeTicks_Capped(t *testing.T) {
	ticks := MakeTicks(0, 1, 1e-9)
	assert.Len(t, ticks, maxTicks)
}

func TestMakeTicks_Properties(t *testing.T) {
	cases := []struct{ min, max, step float64 }{
		{0, 100, 10},
		{88, 100, 1},
		{30, 80, 5},
		{34, 40, 0.5},
		{1.0, 1.04, 0.005},
		{0, 300, 30},
		{-3.3, 7.7, 0.1},
		{0.25, 0.75, 0.05},
		{4, 9, 1},
		{12.34, 56.78, 3.21},
	}

	for _, c := range cases {
		ticks := MakeTicks(c.min, c.max, c.step)
		require.NotEmpty(t, ticks, "%+v", c)
		for i, tick := range ticks {
			assert.GreaterOrEqual(t, tick, round6(c.min), "%+v", c)
			assert.LessOrEqual(t, tick, c.max+1e-9, "%+v", c)
			if i > 0 {
				assert.Greater(t, tick, ticks[i-1], "%+v", c)
				assert.Equal(t, round6(c.step), round6(tick-ticks[i-1]), "%+v", c)
			}
		}
	}
}

func TestTable_PolicyFor(t *testing.T) {
	table, err := NewTable(map[string]Policy{
		"疲労感（mm）": {Range: &Range{Min: 0, Max: 100}, ZeroAnchored: true, TickStep: Float(10)},
		"体重（kg）":  {ZeroAnchored: false},
	})
	require.NoError(t, err)

	p := table.PolicyFor("疲労感（mm）")
	require.NotNil(t, p.Range)
	assert.True(t, p.ZeroAnchored)
	assert.Len(t, p.Ticks(), 11)
	assert.Equal(t, Scale{Domain: &Range{Min: 0, Max: 100}, Zero: true}, p.Scale())
	assert.True(t, table.Has("疲労感（mm）"))

	// missing entries fall back to auto scaling
	def := table.PolicyFor("CK")
	assert.Equal(t, Policy{}, def)
	assert.Equal(t, Scale{}, def.Scale())
	assert.Nil(t, def.Ticks())
	assert.False(t, table.Has("CK"))

	var nilTable *Table
	assert.Equal(t, Policy{}, nilTable.PolicyFor("x"))
}

func TestPolicy_RangeWithoutStep(t *testing.T) {
	p := Policy{Range: &Range{Min: 40, Max: 80}, ZeroAnchored: false}
	assert.Nil(t, p.Ticks())
	assert.Equal(t, &Range{Min: 40, Max: 80}, p.Scale().Domain)
}

func TestPolicy_StepWithoutRange(t *testing.T) {
	p := Policy{TickStep: Float(5), ZeroAnchored: true}
	assert.Nil(t, p.Ticks())
	assert.Equal(t, Scale{Zero: true}, p.Scale())
}

func TestNewTable_InvalidStep(t *testing.T) {
	_, err := NewTable(map[string]Policy{
		"x": {Range: &Range{Min: 0, Max: 1}, TickStep: Float(0)},
	})
	assert.ErrorContains(t, err, "tick step must be positive")
}
