package charts

import (
	"math"

	"github.com/cockroachdb/apd/v3"
)

// SummaryRow holds the descriptive statistics of one series, rounded for display.
type SummaryRow struct {
	Entity string   `json:"entity"`
	Group  string   `json:"group,omitempty"`
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Std    *float64 `json:"std,omitempty"`
}

// SummaryHeaders are the display titles of the summary table columns.
var SummaryHeaders = []string{"選手", "測定回数", "平均値", "最小値", "最大値", "標準偏差"}

func summarize(entity, group string, values []float64, withStd bool) SummaryRow {
	row := SummaryRow{
		Entity: entity,
		Group:  group,
		Count:  len(values),
	}
	if len(values) == 0 {
		return row
	}

	sum, lo, hi := 0.0, values[0], values[0]
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	mean := sum / float64(len(values))

	row.Mean = round2(mean)
	row.Min = round2(lo)
	row.Max = round2(hi)

	if withStd && len(values) > 1 {
		sq := 0.0
		for _, v := range values {
			sq += (v - mean) * (v - mean)
		}
		std := round2(math.Sqrt(sq / float64(len(values)-1)))
		row.Std = &std
	}

	return row
}

// round2 rounds half to even at two decimals on the decimal representation
// of f: 2.675 becomes 2.68 and 0.125 becomes 0.12.
func round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}

	var d apd.Decimal
	if _, err := d.SetFloat64(f); err != nil {
		return math.Round(f*100) / 100
	}

	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfEven
	var result apd.Decimal
	if _, err := ctx.Quantize(&result, &d, -2); err != nil {
		return math.Round(f*100) / 100
	}

	r, err := result.Float64()
	if err != nil {
		return math.Round(f*100) / 100
	}
	return r
}
