package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/2beens/teamcondition/internal/condition/catalog"
	"github.com/2beens/teamcondition/internal/condition/charts"
	"github.com/2beens/teamcondition/internal/condition/pipeline"
	"github.com/2beens/teamcondition/internal/telemetry/tracing"
	"github.com/2beens/teamcondition/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxRequestBody = 1 << 20

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=dashboard_test

type dashboardService interface {
	Title() string
	Metrics() []catalog.Metric
	Options(ctx context.Context, req OptionsRequest) (*pipeline.Options, error)
	Report(ctx context.Context, req SelectionRequest, opts ReportOptions) (*Report, error)
	ChartPNG(ctx context.Context, req SelectionRequest, metric string, opts ReportOptions, width, height int) ([]byte, error)
	Refresh(ctx context.Context) error
}

type Handler struct {
	service dashboardService
}

func NewHandler(service dashboardService) *Handler {
	return &Handler{
		service: service,
	}
}

// ReportRequest is the body of the report endpoints.
type ReportRequest struct {
	Selection SelectionRequest `json:"selection"`
	Options   ReportOptions    `json:"options"`
	// Metric, Width and Height are used by the chart image endpoint only.
	Metric string `json:"metric,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type metricsResponse struct {
	Title   string           `json:"title"`
	Metrics []catalog.Metric `json:"metrics"`
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/metrics", h.HandleMetrics).Methods("GET", "OPTIONS").Name("list-metrics")
	r.HandleFunc("/api/options", h.HandleOptions).Methods("GET", "OPTIONS").Name("selection-options")
	r.HandleFunc("/api/report", h.HandleReport).Methods("POST", "OPTIONS").Name("report")
	r.HandleFunc("/api/report/chart.png", h.HandleChartPNG).Methods("POST", "OPTIONS").Name("report-chart")
	r.HandleFunc("/api/cache/refresh", h.HandleRefresh).Methods("POST", "OPTIONS").Name("refresh-cache")
}

func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.metrics")
	defer span.End()

	pkg.WriteJSON(w, metricsResponse{
		Title:   h.service.Title(),
		Metrics: h.service.Metrics(),
	}, http.StatusOK)
}

// HandleOptions serves the selectable values. Query: entity (repeatable), year.
func (h *Handler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.options")
	defer span.End()

	req := OptionsRequest{
		Entities: r.URL.Query()["entity"],
	}
	if yearParam := r.URL.Query().Get("year"); yearParam != "" {
		year, err := strconv.Atoi(yearParam)
		if err != nil {
			pkg.WriteJSONError(w, "invalid year: "+yearParam, KindValidation, http.StatusBadRequest)
			return
		}
		req.Year = &year
	}

	opts, err := h.service.Options(ctx, req)
	if err != nil {
		writeServiceError(w, "selection options", err)
		return
	}
	pkg.WriteJSON(w, opts, http.StatusOK)
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.report")
	defer span.End()

	req, ok := decodeReportRequest(w, r)
	if !ok {
		return
	}

	report, err := h.service.Report(ctx, req.Selection, req.Options)
	if err != nil {
		writeServiceError(w, "report", err)
		return
	}
	pkg.WriteJSON(w, report, http.StatusOK)
}

func (h *Handler) HandleChartPNG(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.chartPNG")
	defer span.End()

	req, ok := decodeReportRequest(w, r)
	if !ok {
		return
	}
	if req.Width < 0 || req.Height < 0 || req.Width > 4096 || req.Height > 4096 {
		pkg.WriteJSONError(w, "invalid chart size", KindValidation, http.StatusBadRequest)
		return
	}

	png, err := h.service.ChartPNG(ctx, req.Selection, req.Metric, req.Options, req.Width, req.Height)
	if errors.Is(err, charts.ErrNothingToRender) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeServiceError(w, "chart png", err)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.PNG, png)
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.refresh")
	defer span.End()

	if err := h.service.Refresh(ctx); err != nil {
		writeServiceError(w, "refresh", err)
		return
	}
	pkg.WriteJSONResponseOK(w, `{"refreshed":true}`)
}

func decodeReportRequest(w http.ResponseWriter, r *http.Request) (ReportRequest, bool) {
	var req ReportRequest
	if !strings.HasPrefix(r.Header.Get("Content-Type"), pkg.ContentType.JSON) {
		pkg.WriteJSONError(w, "invalid content type", KindValidation, http.StatusBadRequest)
		return req, false
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		log.Debugf("decode report request: %s", err)
		pkg.WriteJSONError(w, "invalid request body: "+err.Error(), KindValidation, http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	switch ErrorKind(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	kind := ErrorKind(err)
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s: %s", op, err)
	} else {
		log.Debugf("%s rejected: %s", op, err)
	}

	message := err.Error()
	if kind == KindInternal {
		message = op + " failed"
	}
	pkg.WriteJSONError(w, message, kind, status)
}
