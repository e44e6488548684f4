package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/teamcondition/internal/condition/catalog"
	"github.com/2beens/teamcondition/internal/condition/records"
	"github.com/2beens/teamcondition/internal/condition/schema"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// WorkingSet is the normalized view of one snapshot: every record has a
// valid timestamp and a normalized entity label.
type WorkingSet struct {
	Records           []records.Record
	DroppedTimestamps int
	DroppedEntities   int
}

// Result is the filtered working set of one selection, ready for charting.
type Result struct {
	Entities          []string
	Metrics           []catalog.Metric
	Period            PeriodFilter
	Records           []records.Record
	Notices           []Notice
	DroppedTimestamps int
	FilterLabel       string
	Heading           string
}

func (r *Result) addNotice(kind NoticeKind, format string, args ...any) {
	r.Notices = append(r.Notices, Notice{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}

type Pipeline struct {
	schema *schema.Schema
}

func New(s *schema.Schema) *Pipeline {
	return &Pipeline{
		schema: s,
	}
}

func (p *Pipeline) Schema() *schema.Schema {
	return p.schema
}

// Normalize parses timestamps and entity labels of all snapshot rows.
// Rows without a parseable timestamp or without an entity label are dropped
// and counted.
func (p *Pipeline) Normalize(snap *records.Snapshot) WorkingSet {
	ws := WorkingSet{
		Records: make([]records.Record, 0),
	}
	if snap == nil {
		return ws
	}

	fields := p.schema.Fields
	for _, row := range snap.Rows {
		ts, ok := records.ParseTimestamp(row[fields.Timestamp])
		if !ok {
			ws.DroppedTimestamps++
			continue
		}

		entity := records.NormalizeName(records.NewValue(row[fields.Entity]).Text())
		if entity == "" {
			ws.DroppedEntities++
			continue
		}

		values := make(map[string]records.Value, len(row))
		for k, v := range row {
			values[k] = records.NewValue(v)
		}
		ws.Records = append(ws.Records, records.Record{
			Entity:    entity,
			Timestamp: ts,
			Values:    values,
		})
	}

	if ws.DroppedTimestamps > 0 || ws.DroppedEntities > 0 {
		log.Debugf("normalize [%s]: dropped %d rows with invalid timestamp, %d without entity",
			snap.Tenant, ws.DroppedTimestamps, ws.DroppedEntities)
	}

	return ws
}

// Run validates the selection and applies the filter stages in order:
// normalization, entity selection, period selection and metric selection.
// Validation and configuration failures are returned as errors; interval
// bounds are checked against the dates of the selected entities once those
// are known. Empty stages only add notices to the result.
func (p *Pipeline) Run(snap *records.Snapshot, sel Selection) (*Result, error) {
	entities, err := p.ResolveEntities(sel.Entities())
	if err != nil {
		return nil, err
	}
	if err := p.ValidatePeriod(snap, sel.Period()); err != nil {
		return nil, err
	}
	metrics, err := p.ResolveMetrics(sel.Metrics())
	if err != nil {
		return nil, err
	}

	label := p.FilterLabel(sel.Period())
	res := &Result{
		Entities:    entities,
		Metrics:     metrics,
		Period:      sel.Period(),
		Records:     make([]records.Record, 0),
		FilterLabel: label,
		Heading:     fmt.Sprintf("選手：%s / %s", strings.Join(entities, ", "), label),
	}

	if snap.Empty() {
		res.addNotice(NoticeNoData, "no records in the store")
		return res, nil
	}

	ws := p.Normalize(snap)
	res.DroppedTimestamps = ws.DroppedTimestamps
	if ws.DroppedTimestamps > 0 {
		res.addNotice(NoticeDroppedRows, "%d records without a valid timestamp were excluded", ws.DroppedTimestamps)
	}

	recs := SelectEntities(ws.Records, entities)
	if len(recs) == 0 {
		res.addNotice(NoticeNoEntityData, "no records for the selected entities")
		return res, nil
	}

	if err := CheckIntervalBounds(ws, entities, sel.Period()); err != nil {
		return nil, err
	}

	recs = SelectPeriod(recs, sel.Period(), p.schema.Fields)
	if len(recs) == 0 {
		res.addNotice(NoticeNoPeriodData, "no records for the selected period")
		return res, nil
	}

	res.Records = recs
	return res, nil
}

// ResolveEntities normalizes, deduplicates and bounds the entity subset.
func (p *Pipeline) ResolveEntities(requested []string) ([]string, error) {
	entities := lo.Uniq(lo.Compact(lo.Map(requested, func(s string, _ int) string {
		return records.NormalizeName(s)
	})))

	if len(entities) == 0 {
		return nil, validationErr("entities", "select at least one entity")
	}
	if limit := p.schema.Limits.MaxEntities; len(entities) > limit {
		return nil, validationErr("entities", "at most %d entities can be selected, got %d", limit, len(entities))
	}
	return entities, nil
}

// ResolveMetrics maps the requested labels to catalog metrics, keeping the
// request order. Unknown and text metrics are rejected.
func (p *Pipeline) ResolveMetrics(labels []string) ([]catalog.Metric, error) {
	labels = lo.Uniq(lo.Compact(lo.Map(labels, func(s string, _ int) string {
		return strings.TrimSpace(s)
	})))

	if len(labels) == 0 {
		return nil, validationErr("metrics", "select at least one metric")
	}
	if limit := p.schema.Limits.MaxMetrics; len(labels) > limit {
		return nil, validationErr("metrics", "at most %d metrics can be selected, got %d", limit, len(labels))
	}

	metrics := make([]catalog.Metric, 0, len(labels))
	for _, label := range labels {
		m, err := p.schema.Catalog.Lookup(label)
		if err != nil {
			return nil, &ValidationError{
				Field:   "metrics",
				Message: err.Error(),
				Err:     err,
			}
		}
		if !m.IsNumeric() {
			return nil, validationErr("metrics", "metric [%s] is a text field and cannot be plotted", label)
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// ValidatePeriod checks the period filter against the selection bounds and,
// for the categorical mode, against the columns of the snapshot.
func (p *Pipeline) ValidatePeriod(snap *records.Snapshot, period PeriodFilter) error {
	switch period.Mode() {
	case PeriodDates:
		interval, _ := period.Interval()
		if interval.Start.IsZero() || interval.End.IsZero() {
			return validationErr("period", "start and end dates are required")
		}
		start, end := records.DateOf(interval.Start), records.DateOf(interval.End)
		if start.After(end) {
			return validationErr("period", "start date %s is after end date %s",
				records.FormatDate(start), records.FormatDate(end))
		}
		return nil

	case PeriodCategorical:
		if err := p.CheckCategoricalFields(snap); err != nil {
			return err
		}

		c, _ := period.Categorical()
		bounds := p.schema.Period
		if c.Year < bounds.MinYear {
			return validationErr("period", "year %d is before %d", c.Year, bounds.MinYear)
		}
		if len(c.SubPeriods) == 0 {
			return validationErr("period", "select at least one %s", p.subPeriodName())
		}
		for _, sp := range c.SubPeriods {
			if sp < bounds.SubPeriodMin || sp > bounds.SubPeriodMax {
				return validationErr("period", "%s %d is outside %d..%d",
					p.subPeriodName(), sp, bounds.SubPeriodMin, bounds.SubPeriodMax)
			}
		}
		return nil

	default:
		return validationErr("period", "a period filter is required")
	}
}

// CheckIntervalBounds requires both bounds of a date interval to be
// measurement dates of the selected entities. Other period modes pass.
func CheckIntervalBounds(ws WorkingSet, entities []string, period PeriodFilter) error {
	interval, ok := period.Interval()
	if !ok {
		return nil
	}

	candidates := make(map[time.Time]struct{})
	for _, d := range DateOptions(ws, entities) {
		candidates[d] = struct{}{}
	}
	for _, bound := range []struct {
		name string
		date time.Time
	}{
		{"start", interval.Start},
		{"end", interval.End},
	} {
		day := records.DateOf(bound.date)
		if _, found := candidates[day]; !found {
			return validationErr("period", "%s date %s is not a measurement date of the selected entities",
				bound.name, records.FormatDate(day))
		}
	}
	return nil
}

// CheckCategoricalFields reports a ConfigurationError naming the configured
// year or sub-period field when it is not present in the store. Snapshots
// without column metadata (no rows) are not checked.
func (p *Pipeline) CheckCategoricalFields(snap *records.Snapshot) error {
	fields := p.schema.Fields
	checkColumns := snap != nil && len(snap.Columns) > 0

	if fields.Year == "" {
		return &ConfigurationError{Field: "year", Message: "no year field configured"}
	}
	if checkColumns && !snap.HasColumn(fields.Year) {
		return &ConfigurationError{Field: fields.Year, Message: "year column not found in the record store"}
	}

	if fields.SubPeriodKind == schema.SubPeriodMonth {
		return nil
	}
	if fields.SubPeriod == "" {
		return &ConfigurationError{Field: "sub_period", Message: "no sub-period field configured"}
	}
	if checkColumns && !snap.HasColumn(fields.SubPeriod) {
		return &ConfigurationError{Field: fields.SubPeriod, Message: "sub-period column not found in the record store"}
	}
	return nil
}

func (p *Pipeline) FilterLabel(period PeriodFilter) string {
	if interval, ok := period.Interval(); ok {
		return fmt.Sprintf("期間：%s 〜 %s", records.FormatDate(interval.Start), records.FormatDate(interval.End))
	}
	if c, ok := period.Categorical(); ok {
		sps := lo.Map(c.SubPeriods, func(sp int, _ int) string {
			return strconv.Itoa(sp)
		})
		return fmt.Sprintf("年度：%d / %s：%s", c.Year, p.subPeriodTitle(), strings.Join(sps, ", "))
	}
	return ""
}

func (p *Pipeline) subPeriodName() string {
	if p.schema.Fields.SubPeriodKind == schema.SubPeriodMonth {
		return "month"
	}
	return "camp"
}

func (p *Pipeline) subPeriodTitle() string {
	if p.schema.Fields.SubPeriodKind == schema.SubPeriodMonth {
		return "月"
	}
	return "合宿回数"
}

// SelectEntities keeps the records of the given normalized entities.
func SelectEntities(recs []records.Record, entities []string) []records.Record {
	wanted := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		wanted[records.NormalizeName(e)] = struct{}{}
	}
	return lo.Filter(recs, func(r records.Record, _ int) bool {
		_, ok := wanted[r.Entity]
		return ok
	})
}

// SelectPeriod keeps the records matching the period filter. It depends on
// nothing but the record itself, so it commutes with SelectEntities.
func SelectPeriod(recs []records.Record, period PeriodFilter, fields schema.Fields) []records.Record {
	switch period.Mode() {
	case PeriodDates:
		interval, _ := period.Interval()
		return lo.Filter(recs, func(r records.Record, _ int) bool {
			return interval.Contains(r.Timestamp)
		})
	case PeriodCategorical:
		c, _ := period.Categorical()
		return lo.Filter(recs, func(r records.Record, _ int) bool {
			year, ok := YearOf(r, fields)
			if !ok || year != c.Year {
				return false
			}
			sp, ok := SubPeriodOf(r, fields)
			return ok && c.hasSubPeriod(sp)
		})
	default:
		return recs
	}
}

// YearOf reads the season of a record from the year field.
func YearOf(r records.Record, fields schema.Fields) (int, bool) {
	if fields.Year == "" {
		return 0, false
	}
	return r.Value(fields.Year).Int()
}

func SubPeriodOf(r records.Record, fields schema.Fields) (int, bool) {
	if fields.SubPeriodKind == schema.SubPeriodMonth {
		return int(r.Timestamp.Month()), true
	}
	if fields.SubPeriod == "" {
		return 0, false
	}
	return r.Value(fields.SubPeriod).Int()
}
