package records

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// nullLike are string renderings of missing values which the listing blanks out.
var nullLike = map[string]bool{
	"nan":   true,
	"None":  true,
	"NaT":   true,
	"<nil>": true,
	"null":  true,
}

// Value wraps one raw cell. The zero Value is absent.
type Value struct {
	raw   any
	valid bool
}

func NewValue(raw any) Value {
	return Value{raw: raw, valid: raw != nil}
}

func (v Value) IsAbsent() bool {
	return !v.valid
}

func (v Value) Raw() any {
	return v.raw
}

// Float coerces the cell to a number. Anything that is not a finite number,
// or a string holding one, is reported as absent.
func (v Value) Float() (float64, bool) {
	if !v.valid {
		return 0, false
	}

	var f float64
	switch t := v.raw.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int coerces the cell to a whole number (e.g. fiscal year, camp number).
func (v Value) Int() (int, bool) {
	f, ok := v.Float()
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Text renders the cell for display: trimmed, with null-like renderings blanked.
func (v Value) Text() string {
	if !v.valid {
		return ""
	}

	var s string
	switch t := v.raw.(type) {
	case string:
		s = t
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		s = strconv.FormatInt(t, 10)
	case bool:
		s = strconv.FormatBool(t)
	case time.Time:
		s = t.Format(time.RFC3339)
	case json.Number:
		s = t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		s = string(b)
	}

	s = strings.TrimSpace(s)
	if nullLike[s] {
		return ""
	}
	return s
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.raw)
}

// NormalizeRawValue maps driver specific cell types onto a small closed set:
// nil, bool, int64, float64, string, time.Time.
func NormalizeRawValue(raw any) any {
	switch t := raw.(type) {
	case nil:
		return nil
	case bool, int64, float64, string, time.Time:
		return t
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case []byte:
		return string(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case pgtype.Numeric:
		if !t.Valid {
			return nil
		}
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Date:
		if !t.Valid {
			return nil
		}
		return t.Time
	case pgtype.Timestamp:
		if !t.Valid {
			return nil
		}
		return t.Time
	case pgtype.Timestamptz:
		if !t.Valid {
			return nil
		}
		return t.Time
	case pgtype.Text:
		if !t.Valid {
			return nil
		}
		return t.String
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		return string(b)
	}
}
