package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/2beens/teamcondition/internal/condition/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "name", s.Fields.Entity)
	assert.Equal(t, "measurement_date", s.Fields.Timestamp)
	assert.Equal(t, "fiscal_year", s.Fields.Year)
	assert.Equal(t, "camp_number", s.Fields.SubPeriod)
	assert.Equal(t, SubPeriodCamp, s.Fields.SubPeriodKind)
	assert.Equal(t, Period{MinYear: 2016, SubPeriodMin: 1, SubPeriodMax: 7}, s.Period)
	assert.Equal(t, Limits{MaxEntities: 5, MaxMetrics: 5}, s.Limits)
	assert.Equal(t, "year", s.Overlay.Key)

	field, err := s.Catalog.ResolveField("LF/HF")
	require.NoError(t, err)
	assert.Equal(t, "lf_hf_ratio", field)
	field, err = s.Catalog.ResolveField("pH")
	require.NoError(t, err)
	assert.Equal(t, "ph", field)

	numeric := s.Catalog.NumericLabels()
	assert.Equal(t, "全般的な体調（mm）", numeric[0])
	assert.NotContains(t, numeric, "睡眠状況")
	assert.NotContains(t, numeric, "故障の箇所")
	assert.NotContains(t, numeric, "備考")

	p := s.Axes.PolicyFor("疲労感（mm）")
	assert.True(t, p.ZeroAnchored)
	assert.Len(t, p.Ticks(), 11)
	assert.Len(t, s.Axes.PolicyFor("尿比重").Ticks(), 9)
	assert.False(t, s.Axes.Has("CK"))

	require.Len(t, s.TextListing, 5)
	assert.Equal(t, TextField{Label: "故障の箇所", Field: "injury_location"}, s.TextListing[1])
}

func TestApplyOverrides(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	o, err := s.ApplyOverrides(FieldOverrides{
		InjuryLocation: "injury_part",
		Year:           "season",
	})
	require.NoError(t, err)

	assert.Equal(t, "injury_part", o.Fields.InjuryLocation)
	assert.Equal(t, "season", o.Fields.Year)
	assert.Equal(t, "camp_number", o.Fields.SubPeriod)
	field, err := o.Catalog.ResolveField("故障の箇所")
	require.NoError(t, err)
	assert.Equal(t, "injury_part", field)
	assert.Equal(t, "injury_part", o.TextListing[1].Field)
	assert.Len(t, o.Axes.PolicyFor("体温（℃）").Ticks(), 13)

	// the original stays untouched
	assert.Equal(t, "injury_location", s.TextListing[1].Field)
	assert.Equal(t, "fiscal_year", s.Fields.Year)
}

func TestParse_Minimal(t *testing.T) {
	s, err := Parse([]byte(`
fields:
  entity: athlete
  timestamp: ts
  sub_period_kind: month
metrics:
  - { label: HR, field: hr }
  - { label: Memo, field: memo, kind: text }
axes:
  HR: { range: { min: 30, max: 80 } }
`))
	require.NoError(t, err)

	assert.Equal(t, SubPeriodMonth, s.Fields.SubPeriodKind)
	assert.Equal(t, Period{SubPeriodMin: 1, SubPeriodMax: 12}, s.Period)
	assert.Equal(t, 5, s.Limits.MaxMetrics)
	m, err := s.Catalog.Lookup("HR")
	require.NoError(t, err)
	assert.Equal(t, catalog.KindNumeric, m.Kind)
	assert.Nil(t, s.Axes.PolicyFor("HR").Ticks())
	assert.Empty(t, s.TextListing)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing entity": `
fields: { timestamp: ts }
metrics: [ { label: a, field: a } ]`,
		"bad kind": `
fields: { entity: e, timestamp: ts, sub_period_kind: week }`,
		"duplicate label": `
fields: { entity: e, timestamp: ts }
metrics: [ { label: a, field: a }, { label: a, field: b } ]`,
		"bad tick step": `
fields: { entity: e, timestamp: ts }
metrics: [ { label: a, field: a } ]
axes: { a: { range: { min: 0, max: 1 }, tick_step: -1 } }`,
		"bad overlay": `
fields: { entity: e, timestamp: ts }
overlay: { key: week }`,
		"not yaml": `fields: [`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 38, s.Catalog.Len())

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fields: { entity: e, timestamp: ts }
metrics: [ { label: a, field: a } ]
`), 0o600))
	s, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Catalog.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
