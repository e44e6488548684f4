package charts

import (
	"sort"
	"time"

	"github.com/2beens/teamcondition/internal/condition/pipeline"
	"github.com/2beens/teamcondition/internal/condition/records"
	"github.com/2beens/teamcondition/internal/condition/schema"
)

type TextRow struct {
	Date   string   `json:"date"`
	Entity string   `json:"entity"`
	Values []string `json:"values"`

	ts time.Time
}

// TextListing is the table of free-text fields, one row per measurement.
type TextListing struct {
	Headers []string           `json:"headers"`
	Columns []schema.TextField `json:"columns"`
	Rows    []TextRow          `json:"rows"`
	Notice  *pipeline.Notice   `json:"notice,omitempty"`
}

// BuildTextListing lists the configured text fields present in the store.
// Values are trimmed and null-like renderings blanked; rows where every text
// column is blank are left out. columns are the store columns; when empty,
// a field counts as present if any record carries it.
func BuildTextListing(res *pipeline.Result, columns []string, fields []schema.TextField) TextListing {
	present := presentFields(res.Records, columns, fields)

	listing := TextListing{
		Headers: []string{"測定日", "選手"},
		Columns: present,
		Rows:    make([]TextRow, 0),
	}
	for _, f := range present {
		listing.Headers = append(listing.Headers, f.Label)
	}

	if len(present) == 0 {
		listing.Notice = &pipeline.Notice{
			Kind:    pipeline.NoticeNoTextFields,
			Message: "none of the text fields exist in the store",
		}
		return listing
	}

	for _, r := range res.Records {
		row := TextRow{
			Date:   records.FormatDate(r.Timestamp),
			Entity: r.Entity,
			Values: make([]string, len(present)),
			ts:     r.Timestamp,
		}
		blank := true
		for i, f := range present {
			row.Values[i] = r.Value(f.Field).Text()
			if row.Values[i] != "" {
				blank = false
			}
		}
		if !blank {
			listing.Rows = append(listing.Rows, row)
		}
	}

	sort.SliceStable(listing.Rows, func(i, j int) bool {
		a, b := listing.Rows[i], listing.Rows[j]
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		return a.ts.Before(b.ts)
	})

	if len(listing.Rows) == 0 {
		listing.Notice = &pipeline.Notice{
			Kind:    pipeline.NoticeNoTextData,
			Message: "no text entries in the selected period",
		}
	}

	return listing
}

func presentFields(recs []records.Record, columns []string, fields []schema.TextField) []schema.TextField {
	exists := make(map[string]bool, len(columns))
	for _, c := range columns {
		exists[c] = true
	}
	if len(columns) == 0 {
		for _, r := range recs {
			for k := range r.Values {
				exists[k] = true
			}
		}
	}

	present := make([]schema.TextField, 0, len(fields))
	for _, f := range fields {
		if exists[f.Field] {
			present = append(present, f)
		}
	}
	return present
}
