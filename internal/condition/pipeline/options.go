package pipeline

import (
	"sort"
	"time"

	"github.com/2beens/teamcondition/internal/condition/records"
	"github.com/2beens/teamcondition/internal/condition/schema"

	"github.com/samber/lo"
)

// Defaults are the initial selections offered to a new interaction: the
// first entity, the full date span, the latest season with its last
// sub-period and the first metric.
type Defaults struct {
	Entities   []string `json:"entities"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
	Year       int      `json:"year,omitempty"`
	SubPeriods []int    `json:"subPeriods,omitempty"`
	Metrics    []string `json:"metrics"`
}

// Options are the selectable values for the current partial selection.
type Options struct {
	Entities      []string             `json:"entities"`
	Dates         []string             `json:"dates"`
	Years         []int                `json:"years"`
	SubPeriods    []int                `json:"subPeriods"`
	SubPeriodKind schema.SubPeriodKind `json:"subPeriodKind"`
	Metrics       []string             `json:"metrics"`
	Defaults      Defaults             `json:"defaults"`

	// CategoricalError is set when the store lacks the year or sub-period columns.
	CategoricalError string   `json:"categoricalError,omitempty"`
	Notices          []Notice `json:"notices,omitempty"`
}

// EntityOptions lists the unique normalized entity labels, sorted.
func EntityOptions(ws WorkingSet) []string {
	entities := lo.Uniq(lo.Map(ws.Records, func(r records.Record, _ int) string {
		return r.Entity
	}))
	sort.Strings(entities)
	return entities
}

// DateOptions lists the civil dates present among the records of the given entities.
func DateOptions(ws WorkingSet, entities []string) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, r := range SelectEntities(ws.Records, entities) {
		seen[r.Date()] = struct{}{}
	}
	dates := lo.Keys(seen)
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

// YearOptions lists the seasons present for the given entities, starting at minYear.
func YearOptions(ws WorkingSet, entities []string, fields schema.Fields, minYear int) []int {
	seen := make(map[int]struct{})
	for _, r := range SelectEntities(ws.Records, entities) {
		if y, ok := YearOf(r, fields); ok && y >= minYear {
			seen[y] = struct{}{}
		}
	}
	years := lo.Keys(seen)
	sort.Ints(years)
	return years
}

// SubPeriodOptions lists the sub-periods present in the given season, within bounds.
func SubPeriodOptions(ws WorkingSet, entities []string, year int, fields schema.Fields, bounds schema.Period) []int {
	seen := make(map[int]struct{})
	for _, r := range SelectEntities(ws.Records, entities) {
		if y, ok := YearOf(r, fields); !ok || y != year {
			continue
		}
		sp, ok := SubPeriodOf(r, fields)
		if ok && sp >= bounds.SubPeriodMin && sp <= bounds.SubPeriodMax {
			seen[sp] = struct{}{}
		}
	}
	sps := lo.Keys(seen)
	sort.Ints(sps)
	return sps
}

// MetricOptions lists only the plottable metrics, in catalog order.
func (p *Pipeline) MetricOptions() []string {
	return p.schema.Catalog.NumericLabels()
}

// Options computes the selectable values for the snapshot. With no entities
// given, the default (first) entity is used; with no year given, the latest
// season is used for the sub-period options.
func (p *Pipeline) Options(snap *records.Snapshot, entities []string, year *int) (*Options, error) {
	ws := p.Normalize(snap)
	fields := p.schema.Fields

	opts := &Options{
		Entities:      EntityOptions(ws),
		Dates:         make([]string, 0),
		Years:         make([]int, 0),
		SubPeriods:    make([]int, 0),
		SubPeriodKind: fields.SubPeriodKind,
		Metrics:       p.MetricOptions(),
	}
	if len(opts.Metrics) > 0 {
		opts.Defaults.Metrics = opts.Metrics[:1]
	}

	if len(opts.Entities) == 0 {
		opts.Notices = append(opts.Notices, Notice{Kind: NoticeNoData, Message: "no entities found in the store"})
		return opts, nil
	}

	if len(entities) == 0 {
		entities = opts.Entities[:1]
	} else {
		resolved, err := p.ResolveEntities(entities)
		if err != nil {
			return nil, err
		}
		entities = resolved
	}
	opts.Defaults.Entities = entities

	dates := DateOptions(ws, entities)
	opts.Dates = lo.Map(dates, func(d time.Time, _ int) string {
		return records.FormatDate(d)
	})
	if len(dates) > 0 {
		opts.Defaults.Start = opts.Dates[0]
		opts.Defaults.End = opts.Dates[len(opts.Dates)-1]
	} else {
		opts.Notices = append(opts.Notices, Notice{Kind: NoticeNoEntityData, Message: "no measurement dates for the selected entities"})
	}

	if err := p.CheckCategoricalFields(snap); err != nil {
		opts.CategoricalError = err.Error()
		return opts, nil
	}

	opts.Years = YearOptions(ws, entities, fields, p.schema.Period.MinYear)
	if len(opts.Years) == 0 {
		return opts, nil
	}

	selectedYear := opts.Years[len(opts.Years)-1]
	if year != nil {
		selectedYear = *year
	}
	opts.Defaults.Year = selectedYear
	opts.SubPeriods = SubPeriodOptions(ws, entities, selectedYear, fields, p.schema.Period)
	if len(opts.SubPeriods) > 0 {
		opts.Defaults.SubPeriods = opts.SubPeriods[len(opts.SubPeriods)-1:]
	}

	return opts, nil
}
