package axis

import (
	"fmt"
	"math"
)

const (
	tickEpsilon   = 1e-9
	tickPrecision = 1e6
	// maxTicks guards against near-zero steps
	maxTicks = 500
)

type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Policy is the chart scale configuration of one metric.
// Without a Range the renderer auto-fits the domain and TickStep has no effect.
type Policy struct {
	Range        *Range   `json:"range,omitempty" yaml:"range,omitempty"`
	ZeroAnchored bool     `json:"zeroAnchored" yaml:"zero"`
	TickStep     *float64 `json:"tickStep,omitempty" yaml:"tick_step,omitempty"`
}

// Scale is the y scale hint handed to renderers. A nil Domain means auto.
type Scale struct {
	Domain *Range `json:"domain,omitempty"`
	Zero   bool   `json:"zero"`
}

func (p Policy) Validate() error {
	if p.Range != nil && (math.IsNaN(p.Range.Min) || math.IsNaN(p.Range.Max)) {
		return fmt.Errorf("range bounds must be numbers")
	}
	if p.TickStep != nil && !(*p.TickStep > 0) {
		return fmt.Errorf("tick step must be positive, got %v", *p.TickStep)
	}
	return nil
}

func (p Policy) Scale() Scale {
	if p.Range == nil {
		return Scale{Zero: p.ZeroAnchored}
	}
	domain := *p.Range
	return Scale{Domain: &domain, Zero: p.ZeroAnchored}
}

// Ticks returns explicit tick positions, or nil when they can't be precomputed.
func (p Policy) Ticks() []float64 {
	if p.Range == nil || p.TickStep == nil {
		return nil
	}
	return MakeTicks(p.Range.Min, p.Range.Max, *p.TickStep)
}

// Table holds explicit policies keyed by metric label.
type Table struct {
	policies map[string]Policy
}

func NewTable(policies map[string]Policy) (*Table, error) {
	t := &Table{
		policies: make(map[string]Policy, len(policies)),
	}
	for label, p := range policies {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("axis policy [%s]: %w", label, err)
		}
		t.policies[label] = p
	}
	return t, nil
}

// PolicyFor never fails: unconfigured metrics get the automatic default policy.
func (t *Table) PolicyFor(label string) Policy {
	if t == nil {
		return Policy{}
	}
	if p, ok := t.policies[label]; ok {
		return p
	}
	return Policy{}
}

func (t *Table) Has(label string) bool {
	if t == nil {
		return false
	}
	_, ok := t.policies[label]
	return ok
}

// MakeTicks emits the multiples of step within [min, max], rounded to 6 digits.
// A non-positive step yields no explicit ticks.
func MakeTicks(min, max, step float64) []float64 {
	if !(step > 0) || math.IsInf(step, 0) || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if min > max {
		min, max = max, min
	}

	first := math.Ceil(min/step) * step
	var ticks []float64
	for i := 0; i < maxTicks; i++ {
		v := first + float64(i)*step
		if v > max+tickEpsilon {
			break
		}
		ticks = append(ticks, math.Round(v*tickPrecision)/tickPrecision)
	}

	if len(ticks) == 0 {
		return nil
	}
	return ticks
}

func Float(f float64) *float64 {
	return &f
}
