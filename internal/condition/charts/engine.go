package charts

import (
	"fmt"
	"sort"
	"time"

	"github.com/2beens/teamcondition/internal/condition/axis"
	"github.com/2beens/teamcondition/internal/condition/catalog"
	"github.com/2beens/teamcondition/internal/condition/pipeline"
	"github.com/2beens/teamcondition/internal/condition/records"

	log "github.com/sirupsen/logrus"
)

type Tooltip struct {
	Entity string  `json:"entity"`
	Date   string  `json:"date"`
	Value  float64 `json:"value"`
}

type Point struct {
	Timestamp time.Time `json:"timestamp"`
	// X is the timestamp projected by the grouping strategy.
	X       time.Time `json:"x"`
	Value   float64   `json:"value"`
	Tooltip Tooltip   `json:"tooltip"`
}

// Series is the ordered sequence of points of one entity/group pair.
type Series struct {
	Key    string  `json:"key"`
	Entity string  `json:"entity"`
	Group  string  `json:"group"`
	Points []Point `json:"points"`
}

// MetricChart is the renderer independent chart description of one metric.
type MetricChart struct {
	Label    string           `json:"label"`
	Field    string           `json:"field"`
	Grouping string           `json:"grouping"`
	Empty    bool             `json:"empty"`
	Notice   *pipeline.Notice `json:"notice,omitempty"`
	Scale    axis.Scale       `json:"scale"`
	Ticks    []float64        `json:"ticks,omitempty"`
	XFormat  string           `json:"xFormat"`
	// TooltipTitles are the titles of the entity, date and value tooltip fields.
	TooltipTitles  []string     `json:"tooltipTitles"`
	Series         []Series     `json:"series"`
	Summary        []SummaryRow `json:"summary"`
	CoercionLosses int          `json:"coercionLosses"`
}

type Option func(*Engine)

// WithStdDev adds the sample standard deviation to the summary rows.
func WithStdDev() Option {
	return func(e *Engine) {
		e.withStdDev = true
	}
}

type Engine struct {
	axes       *axis.Table
	withStdDev bool
}

func NewEngine(axes *axis.Table, opts ...Option) *Engine {
	e := &Engine{
		axes: axes,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Build produces one chart per requested metric, in the requested order.
// A metric without any numeric value yields an empty chart with a notice and
// does not affect the other metrics.
func (e *Engine) Build(res *pipeline.Result, strategy GroupingStrategy) []MetricChart {
	if strategy == nil {
		strategy = ByEntity{}
	}

	out := make([]MetricChart, 0, len(res.Metrics))
	for _, m := range res.Metrics {
		out = append(out, e.buildMetric(res.Records, m, strategy))
	}
	return out
}

type plotRow struct {
	entity string
	ts     time.Time
	value  float64
	rec    records.Record
}

func (e *Engine) buildMetric(recs []records.Record, m catalog.Metric, strategy GroupingStrategy) MetricChart {
	policy := e.axes.PolicyFor(m.Label)
	mc := MetricChart{
		Label:         m.Label,
		Field:         m.Field,
		Grouping:      strategy.Name(),
		Scale:         policy.Scale(),
		Ticks:         policy.Ticks(),
		XFormat:       strategy.XFormat(),
		TooltipTitles: []string{"選手", "測定日", m.Label},
		Series:        make([]Series, 0),
		Summary:       make([]SummaryRow, 0),
	}

	rows := make([]plotRow, 0, len(recs))
	for _, r := range recs {
		v := r.Value(m.Field)
		f, ok := v.Float()
		if !ok {
			if !v.IsAbsent() && v.Text() != "" {
				mc.CoercionLosses++
			}
			continue
		}
		if r.Timestamp.IsZero() {
			continue
		}
		rows = append(rows, plotRow{entity: r.Entity, ts: r.Timestamp, value: f, rec: r})
	}

	if mc.CoercionLosses > 0 {
		log.Tracef("metric [%s]: %d values could not be read as numbers", m.Label, mc.CoercionLosses)
	}

	if len(rows) == 0 {
		mc.Empty = true
		mc.Notice = &pipeline.Notice{
			Kind:    pipeline.NoticeNoMetricData,
			Message: fmt.Sprintf("no data for %s in the selected period", m.Label),
			Metric:  m.Label,
		}
		return mc
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].entity != rows[j].entity {
			return rows[i].entity < rows[j].entity
		}
		return rows[i].ts.Before(rows[j].ts)
	})

	_, overlay := strategy.(SeasonOverlay)
	multiEntity := rows[0].entity != rows[len(rows)-1].entity

	index := make(map[[2]string]int)
	values := make([][]float64, 0)
	for _, row := range rows {
		group := strategy.Group(row.rec)
		id := [2]string{row.entity, group}
		i, ok := index[id]
		if !ok {
			i = len(mc.Series)
			index[id] = i
			mc.Series = append(mc.Series, Series{
				Key:    seriesKey(row.entity, group, overlay, multiEntity),
				Entity: row.entity,
				Group:  group,
			})
			values = append(values, nil)
		}

		mc.Series[i].Points = append(mc.Series[i].Points, Point{
			Timestamp: row.ts,
			X:         strategy.Project(row.ts),
			Value:     row.value,
			Tooltip: Tooltip{
				Entity: row.entity,
				Date:   records.FormatDate(row.ts),
				Value:  row.value,
			},
		})
		values[i] = append(values[i], row.value)
	}

	for i, s := range mc.Series {
		group := ""
		if overlay {
			group = s.Group
		}
		mc.Summary = append(mc.Summary, summarize(s.Entity, group, values[i], e.withStdDev))
	}

	return mc
}

func seriesKey(entity, group string, overlay, multiEntity bool) string {
	if !overlay {
		return entity
	}
	if multiEntity {
		return entity + " " + group
	}
	return group
}
