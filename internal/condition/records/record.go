package records

import (
	"sort"
	"strings"
	"time"
)

const DateFormat = "2006-01-02"

// Row is one raw record as returned by a record store: column name -> cell value.
// Cell values are normalized with NormalizeRawValue before they reach a Row.
type Row map[string]any

// Snapshot holds all rows fetched for one tenant at a single point in time.
// Snapshots are shared between requests and must not be mutated after fetch.
type Snapshot struct {
	Tenant    string    `json:"tenant"`
	Source    string    `json:"source"`
	Columns   []string  `json:"columns"`
	Rows      []Row     `json:"rows"`
	FetchedAt time.Time `json:"fetchedAt"`
}

func NewSnapshot(tenant, source string, columns []string, rows []Row) *Snapshot {
	if rows == nil {
		rows = make([]Row, 0)
	}
	return &Snapshot{
		Tenant:  tenant,
		Source:  source,
		Columns: columns,
		Rows:    rows,
	}
}

// HasColumn reports whether the store schema contains the given column.
func (s *Snapshot) HasColumn(name string) bool {
	if s == nil || name == "" {
		return false
	}
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Rows) == 0
}

// ColumnsFromRows collects the sorted union of keys of all rows. Used by stores
// which return rows as JSON objects and have no separate column metadata.
func ColumnsFromRows(rows []Row) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

// Record is a normalized measurement event: it has a valid timestamp and a
// normalized entity label.
type Record struct {
	Entity    string
	Timestamp time.Time
	Values    map[string]Value
}

// Value returns the cell for the given field. Fields missing from the record
// (e.g. placeholder metrics not present in the store) yield an absent value.
func (r Record) Value(field string) Value {
	if r.Values == nil {
		return Value{}
	}
	return r.Values[field]
}

func (r Record) Date() time.Time {
	return DateOf(r.Timestamp)
}

// NormalizeName trims the label, converts full-width spaces and collapses
// runs of whitespace into a single ASCII space.
func NormalizeName(s string) string {
	// strings.Fields splits on unicode.IsSpace, which includes U+3000
	return strings.Join(strings.Fields(s), " ")
}

// DateOf returns the civil date of t (in t's own location) as midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, strings.TrimSpace(s))
}
