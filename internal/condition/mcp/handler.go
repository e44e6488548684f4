package mcp

import (
	"context"
	"encoding/json"

	"github.com/2beens/teamcondition/internal/condition/catalog"
	"github.com/2beens/teamcondition/internal/condition/dashboard"
	"github.com/2beens/teamcondition/internal/condition/pipeline"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// conditionService is the part of dashboard.Service the tools need.
type conditionService interface {
	Title() string
	Metrics() []catalog.Metric
	Options(ctx context.Context, req dashboard.OptionsRequest) (*pipeline.Options, error)
	Report(ctx context.Context, req dashboard.SelectionRequest, opts dashboard.ReportOptions) (*dashboard.Report, error)
}

// Handler handles MCP tool requests: parses input, calls the service, formats the MCP result.
type Handler struct {
	service conditionService
}

func NewHandler(service conditionService) *Handler {
	return &Handler{
		service: service,
	}
}

type metricsOutput struct {
	Title   string           `json:"title"`
	Metrics []catalog.Metric `json:"metrics"`
}

// ListMetricsTool returns the MCP tool handler for list_metrics.
func (h *Handler) ListMetricsTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		return jsonResult(metricsOutput{
			Title:   h.service.Title(),
			Metrics: h.service.Metrics(),
		}), nil, nil
	}
}

// SelectionOptionsInput is the input for get_selection_options.
type SelectionOptionsInput struct {
	Entities []string `json:"entities,omitempty" jsonschema:"Selected athletes; narrows the offered dates"`
	Year     *int     `json:"year,omitempty" jsonschema:"Fiscal year; narrows the offered sub-periods (camps)"`
}

// GetSelectionOptionsTool returns the MCP tool handler for get_selection_options.
func (h *Handler) GetSelectionOptionsTool() func(context.Context, *mcp.CallToolRequest, SelectionOptionsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SelectionOptionsInput) (*mcp.CallToolResult, any, error) {
		opts, err := h.service.Options(ctx, dashboard.OptionsRequest{
			Entities: in.Entities,
			Year:     in.Year,
		})
		if err != nil {
			return errorResult("Error fetching selection options: " + err.Error()), nil, nil
		}
		return jsonResult(opts), nil, nil
	}
}

// ConditionReportInput is the input for get_condition_report.
type ConditionReportInput struct {
	Entities   []string `json:"entities" jsonschema:"Athlete names (1 to 5)"`
	Mode       string   `json:"mode,omitempty" jsonschema:"Period mode: dates (default) or categorical"`
	Start      string   `json:"start,omitempty" jsonschema:"Start date (YYYY-MM-DD), dates mode"`
	End        string   `json:"end,omitempty" jsonschema:"End date (YYYY-MM-DD), dates mode"`
	Year       *int     `json:"year,omitempty" jsonschema:"Fiscal year, categorical mode"`
	SubPeriods []int    `json:"sub_periods,omitempty" jsonschema:"Camp numbers, categorical mode"`
	Metrics    []string `json:"metrics" jsonschema:"Metric labels (1 to 5), see list_metrics"`
	Grouping   string   `json:"grouping,omitempty" jsonschema:"entity (default), year or year_month"`
	WithStdDev bool     `json:"with_std_dev,omitempty" jsonschema:"Include the sample standard deviation in summaries"`
	WithText   bool     `json:"with_text,omitempty" jsonschema:"Include the free-text listing"`
}

// GetConditionReportTool returns the MCP tool handler for get_condition_report.
func (h *Handler) GetConditionReportTool() func(context.Context, *mcp.CallToolRequest, ConditionReportInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ConditionReportInput) (*mcp.CallToolResult, any, error) {
		sel := dashboard.SelectionRequest{
			Entities:   in.Entities,
			Mode:       in.Mode,
			Start:      in.Start,
			End:        in.End,
			Year:       in.Year,
			SubPeriods: in.SubPeriods,
			Metrics:    in.Metrics,
		}
		opts := dashboard.ReportOptions{
			Grouping:   in.Grouping,
			WithStdDev: in.WithStdDev,
			WithText:   in.WithText,
		}
		report, err := h.service.Report(ctx, sel, opts)
		if err != nil {
			return errorResult("Error building report (" + dashboard.ErrorKind(err) + "): " + err.Error()), nil, nil
		}
		return jsonResult(report), nil, nil
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
