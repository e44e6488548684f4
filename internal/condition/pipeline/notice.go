package pipeline

// NoticeKind identifies an informational, non fatal condition of a report.
type NoticeKind string

const (
	NoticeNoData         NoticeKind = "no_data"
	NoticeNoEntityData   NoticeKind = "no_entity_data"
	NoticeNoPeriodData   NoticeKind = "no_period_data"
	NoticeDroppedRows    NoticeKind = "dropped_rows"
	NoticeNoMetricData   NoticeKind = "no_metric_data"
	NoticeNoTextFields   NoticeKind = "no_text_fields"
	NoticeNoTextData     NoticeKind = "no_text_data"
	NoticeCoercionLosses NoticeKind = "coercion_losses"
)

type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Metric  string     `json:"metric,omitempty"`
}
