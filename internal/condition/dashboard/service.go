package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/2beens/teamcondition/internal/condition/catalog"
	"github.com/2beens/teamcondition/internal/condition/charts"
	"github.com/2beens/teamcondition/internal/condition/pipeline"
	"github.com/2beens/teamcondition/internal/condition/records"
	"github.com/2beens/teamcondition/internal/condition/schema"
	"github.com/2beens/teamcondition/internal/condition/store"
	"github.com/2beens/teamcondition/internal/telemetry/metrics"
	"github.com/2beens/teamcondition/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// SelectionRequest is the wire form of one interaction's selection.
type SelectionRequest struct {
	Entities []string `json:"entities"`
	// Mode is "dates" (default) or "categorical".
	Mode       string   `json:"mode,omitempty"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
	Year       *int     `json:"year,omitempty"`
	SubPeriods []int    `json:"subPeriods,omitempty"`
	Metrics    []string `json:"metrics"`
}

// Selection parses the request into an immutable pipeline selection.
func (r SelectionRequest) Selection() (pipeline.Selection, error) {
	var period pipeline.PeriodFilter
	switch pipeline.PeriodMode(r.Mode) {
	case "", pipeline.PeriodDates:
		start, err := parseDate("start", r.Start)
		if err != nil {
			return pipeline.Selection{}, err
		}
		end, err := parseDate("end", r.End)
		if err != nil {
			return pipeline.Selection{}, err
		}
		period = pipeline.ByDates(start, end)
	case pipeline.PeriodCategorical:
		if r.Year == nil {
			return pipeline.Selection{}, &pipeline.ValidationError{Field: "year", Message: "a year is required"}
		}
		period = pipeline.ByCategory(*r.Year, r.SubPeriods)
	default:
		return pipeline.Selection{}, &pipeline.ValidationError{
			Field:   "mode",
			Message: fmt.Sprintf("unknown period mode [%s]", r.Mode),
		}
	}
	return pipeline.NewSelection(r.Entities, period, r.Metrics), nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &pipeline.ValidationError{Field: field, Message: "a date is required"}
	}
	t, err := records.ParseDate(value)
	if err != nil {
		return time.Time{}, &pipeline.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("[%s] is not a YYYY-MM-DD date", value),
			Err:     err,
		}
	}
	return t, nil
}

type ReportOptions struct {
	// Grouping is "entity" (default), "year" or "year_month".
	Grouping   string `json:"grouping,omitempty"`
	WithStdDev bool   `json:"withStdDev,omitempty"`
	WithText   bool   `json:"withText,omitempty"`
}

type OptionsRequest struct {
	Entities []string `json:"entities,omitempty"`
	Year     *int     `json:"year,omitempty"`
}

type Report struct {
	Title             string               `json:"title"`
	Heading           string               `json:"heading"`
	FilterLabel       string               `json:"filterLabel"`
	Tenant            string               `json:"tenant"`
	Source            string               `json:"source"`
	FetchedAt         time.Time            `json:"fetchedAt"`
	Entities          []string             `json:"entities"`
	Grouping          string               `json:"grouping"`
	Charts            []charts.MetricChart `json:"charts"`
	Text              *charts.TextListing  `json:"text,omitempty"`
	Notices           []pipeline.Notice    `json:"notices"`
	DroppedTimestamps int                  `json:"droppedTimestamps"`
}

// invalidator is implemented by caching record stores.
type invalidator interface {
	Invalidate(ctx context.Context, tenant string) error
}

type Service struct {
	store    store.RecordStore
	pipeline *pipeline.Pipeline
	schema   *schema.Schema
	pngCache *charts.PNGCache
	tenant   string
	metrics  *metrics.Manager
}

type NewServiceParams struct {
	Store  store.RecordStore
	Schema *schema.Schema
	// Tenant is the fixed team all reads are scoped to.
	Tenant   string
	PNGCache *charts.PNGCache
	Metrics  *metrics.Manager
}

func NewService(params NewServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, errors.New("dashboard service: record store is nil")
	}
	if params.Schema == nil {
		return nil, errors.New("dashboard service: schema is nil")
	}
	return &Service{
		store:    params.Store,
		pipeline: pipeline.New(params.Schema),
		schema:   params.Schema,
		pngCache: params.PNGCache,
		tenant:   params.Tenant,
		metrics:  params.Metrics,
	}, nil
}

func (s *Service) Tenant() string {
	return s.tenant
}

func (s *Service) Title() string {
	return s.tenant + " データ"
}

// Metrics lists the catalog, numeric and text metrics alike.
func (s *Service) Metrics() []catalog.Metric {
	return s.schema.Catalog.Metrics()
}

func (s *Service) Options(ctx context.Context, req OptionsRequest) (_ *pipeline.Options, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboard.service.options")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	snap, err := s.store.FetchAll(ctx, s.tenant)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	opts, err := s.pipeline.Options(snap, req.Entities, req.Year)
	if err != nil {
		s.observeRejected(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("entities", len(opts.Entities)))
	return opts, nil
}

func (s *Service) Report(ctx context.Context, req SelectionRequest, opts ReportOptions) (_ *Report, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboard.service.report")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	snap, res, strategy, err := s.run(ctx, req, opts)
	if err != nil {
		return nil, err
	}

	engine := s.engine(opts)
	report := &Report{
		Title:             s.Title(),
		Heading:           res.Heading,
		FilterLabel:       res.FilterLabel,
		Tenant:            s.tenant,
		Source:            snap.Source,
		FetchedAt:         snap.FetchedAt,
		Entities:          res.Entities,
		Grouping:          strategy.Name(),
		Charts:            engine.Build(res, strategy),
		Notices:           append(make([]pipeline.Notice, 0, len(res.Notices)), res.Notices...),
		DroppedTimestamps: res.DroppedTimestamps,
	}
	for _, mc := range report.Charts {
		if mc.CoercionLosses > 0 {
			report.Notices = append(report.Notices, pipeline.Notice{
				Kind:    pipeline.NoticeCoercionLosses,
				Message: fmt.Sprintf("%d values of %s could not be read as numbers", mc.CoercionLosses, mc.Label),
				Metric:  mc.Label,
			})
		}
	}
	if opts.WithText {
		listing := charts.BuildTextListing(res, snap.Columns, s.schema.TextListing)
		report.Text = &listing
	}

	if s.metrics != nil {
		s.metrics.CounterReports.WithLabelValues(string(res.Period.Mode())).Inc()
		if res.DroppedTimestamps > 0 {
			s.metrics.CounterDroppedRows.WithLabelValues("timestamp").Add(float64(res.DroppedTimestamps))
		}
	}
	span.SetAttributes(
		attribute.Int("records", len(res.Records)),
		attribute.Int("charts", len(report.Charts)),
	)
	log.Debugf("report [%s]: %d records, %d notices", res.Heading, len(res.Records), len(report.Notices))

	return report, nil
}

// ChartPNG renders a single metric for the entities and period of the
// selection; the selection's own metrics are ignored unless metric is empty.
// Rendered images are cached per snapshot and selection.
func (s *Service) ChartPNG(ctx context.Context, req SelectionRequest, metric string, opts ReportOptions, width, height int) (_ []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboard.service.chartPNG")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("metric", metric))

	if metric == "" && len(req.Metrics) == 1 {
		metric = req.Metrics[0]
	}
	if _, err := s.schema.Catalog.Lookup(metric); err != nil {
		verr := &pipeline.ValidationError{Field: "metric", Message: fmt.Sprintf("unknown metric [%s]", metric), Err: err}
		s.observeRejected(verr)
		return nil, verr
	}
	req.Metrics = []string{metric}

	snap, res, strategy, err := s.run(ctx, req, opts)
	if err != nil {
		return nil, err
	}

	key := s.pngCacheKey(snap, req, opts, width, height)
	if s.pngCache != nil {
		if png, ok := s.pngCache.Get(key); ok {
			span.SetAttributes(attribute.Bool("cached", true))
			return png, nil
		}
	}

	built := s.engine(opts).Build(res, strategy)
	if len(built) != 1 {
		return nil, fmt.Errorf("expected one chart for [%s], got %d", metric, len(built))
	}
	png, err := charts.RenderPNG(built[0], width, height)
	if err != nil {
		return nil, err
	}

	if s.pngCache != nil {
		s.pngCache.Set(key, png)
	}
	return png, nil
}

// Refresh drops the cached snapshot and rendered charts, so the next
// interaction reads the store again.
func (s *Service) Refresh(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboard.service.refresh")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if s.pngCache != nil {
		s.pngCache.Clear()
	}
	inv, ok := s.store.(invalidator)
	if !ok {
		return nil
	}
	if err := inv.Invalidate(ctx, s.tenant); err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	log.Infof("snapshot cache for tenant [%s] invalidated", s.tenant)
	return nil
}

func (s *Service) run(ctx context.Context, req SelectionRequest, opts ReportOptions) (*records.Snapshot, *pipeline.Result, charts.GroupingStrategy, error) {
	strategy, err := charts.StrategyFor(opts.Grouping)
	if err != nil {
		verr := &pipeline.ValidationError{Field: "grouping", Message: err.Error(), Err: err}
		s.observeRejected(verr)
		return nil, nil, nil, verr
	}

	sel, err := req.Selection()
	if err != nil {
		s.observeRejected(err)
		return nil, nil, nil, err
	}

	snap, err := s.store.FetchAll(ctx, s.tenant)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch records: %w", err)
	}

	res, err := s.pipeline.Run(snap, sel)
	if err != nil {
		s.observeRejected(err)
		return nil, nil, nil, err
	}
	return snap, res, strategy, nil
}

func (s *Service) engine(opts ReportOptions) *charts.Engine {
	var engineOpts []charts.Option
	if opts.WithStdDev {
		engineOpts = append(engineOpts, charts.WithStdDev())
	}
	return charts.NewEngine(s.schema.Axes, engineOpts...)
}

func (s *Service) pngCacheKey(snap *records.Snapshot, req SelectionRequest, opts ReportOptions, width, height int) string {
	// encoding a struct of plain fields cannot fail
	reqJson, _ := json.Marshal(req)
	optsJson, _ := json.Marshal(opts)
	return charts.CacheKey(
		s.tenant,
		snap.FetchedAt.Format(time.RFC3339Nano),
		string(reqJson),
		string(optsJson),
		strconv.Itoa(width),
		strconv.Itoa(height),
	)
}

func (s *Service) observeRejected(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.CounterRejectedSelections.WithLabelValues(ErrorKind(err)).Inc()
}

const (
	KindValidation    = "validation"
	KindConfiguration = "configuration"
	KindStore         = "store"
	KindInternal      = "internal"
)

// ErrorKind classifies err for API responses and metrics.
func ErrorKind(err error) string {
	switch {
	case pipeline.IsValidationError(err):
		return KindValidation
	case pipeline.IsConfigurationError(err):
		return KindConfiguration
	case errors.Is(err, store.ErrStoreUnavailable):
		return KindStore
	default:
		return KindInternal
	}
}
