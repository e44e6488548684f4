package pipeline

import (
	"time"

	"github.com/2beens/teamcondition/internal/condition/records"
)

type PeriodMode string

const (
	PeriodDates       PeriodMode = "dates"
	PeriodCategorical PeriodMode = "categorical"
)

// DateInterval is a closed interval of civil dates.
type DateInterval struct {
	Start time.Time
	End   time.Time
}

// Contains compares civil dates: the time of day of t and of the bounds is ignored.
func (d DateInterval) Contains(t time.Time) bool {
	day := records.DateOf(t)
	return !day.Before(records.DateOf(d.Start)) && !day.After(records.DateOf(d.End))
}

// Categorical selects one season (fiscal year) and a set of sub-periods
// within it (camp numbers or calendar months).
type Categorical struct {
	Year       int
	SubPeriods []int
}

func (c Categorical) hasSubPeriod(sp int) bool {
	for _, s := range c.SubPeriods {
		if s == sp {
			return true
		}
	}
	return false
}

// PeriodFilter is either a date interval or a categorical filter, never both.
type PeriodFilter struct {
	mode        PeriodMode
	interval    DateInterval
	categorical Categorical
}

func ByDates(start, end time.Time) PeriodFilter {
	return PeriodFilter{
		mode:     PeriodDates,
		interval: DateInterval{Start: start, End: end},
	}
}

func ByCategory(year int, subPeriods []int) PeriodFilter {
	sp := make([]int, len(subPeriods))
	copy(sp, subPeriods)
	return PeriodFilter{
		mode:        PeriodCategorical,
		categorical: Categorical{Year: year, SubPeriods: sp},
	}
}

func (p PeriodFilter) Mode() PeriodMode {
	return p.mode
}

func (p PeriodFilter) Interval() (DateInterval, bool) {
	return p.interval, p.mode == PeriodDates
}

func (p PeriodFilter) Categorical() (Categorical, bool) {
	if p.mode != PeriodCategorical {
		return Categorical{}, false
	}
	sp := make([]int, len(p.categorical.SubPeriods))
	copy(sp, p.categorical.SubPeriods)
	return Categorical{Year: p.categorical.Year, SubPeriods: sp}, true
}

// Selection is one user query against the record set. It is built fresh per
// interaction and never changed afterwards; accessors return copies.
type Selection struct {
	entities []string
	period   PeriodFilter
	metrics  []string
}

func NewSelection(entities []string, period PeriodFilter, metrics []string) Selection {
	return Selection{
		entities: copyStrings(entities),
		period:   period,
		metrics:  copyStrings(metrics),
	}
}

func (s Selection) Entities() []string {
	return copyStrings(s.entities)
}

func (s Selection) Period() PeriodFilter {
	return s.period
}

func (s Selection) Metrics() []string {
	return copyStrings(s.metrics)
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
