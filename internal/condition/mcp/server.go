package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server with the condition dashboard tools.
// Used by cmd/dashboard_mcp over stdio and by the backend at /mcp.
func NewServer(service conditionService) *mcp.Server {
	h := NewHandler(service)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "teamcondition",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_metrics",
		Description: "Returns the dashboard title and the metric catalog (label, field, kind). Only numeric metrics can be charted; use the labels as the metrics of get_condition_report.",
	}, h.ListMetricsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_selection_options",
		Description: "Returns the selectable athletes, dates, fiscal years, camps and metrics, plus the default selection. Optional: entities narrows the dates, year narrows the camps.",
	}, h.GetSelectionOptionsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_condition_report",
		Description: "Builds the condition report for 1-5 athletes and 1-5 metrics over a date interval (mode dates: start, end) or a fiscal year and camps (mode categorical: year, sub_periods). Returns chart series, per-athlete summaries (count, mean, min, max, optional std) and notices as JSON.",
	}, h.GetConditionReportTool())

	return s
}
