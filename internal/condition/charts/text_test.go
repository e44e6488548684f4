package charts

import (
	"testing"

	"github.com/2beens/teamcondition/internal/condition/pipeline"
	"github.com/2beens/teamcondition/internal/condition/records"
	"github.com/2beens/teamcondition/internal/condition/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var textFields = []schema.TextField{
	{Label: "睡眠状況", Field: "sleep_status"},
	{Label: "故障の箇所", Field: "injury_location"},
	{Label: "特記事項", Field: "notes"},
	{Label: "その他", Field: "another"},
	{Label: "備考", Field: "remarks"},
}

func TestBuildTextListing(t *testing.T) {
	res := &pipeline.Result{
		Records: []records.Record{
			rec("B", "2024-01-10", map[string]any{"sleep_status": " 良好 ", "notes": nil, "remarks": "None"}),
			rec("A", "2024-01-20", map[string]any{"sleep_status": "nan", "notes": "  ", "remarks": "NaT"}),
			rec("A", "2024-01-05", map[string]any{"sleep_status": nil, "notes": "右膝に違和感", "remarks": ""}),
		},
	}
	columns := []string{"name", "measurement_date", "sleep_status", "notes", "remarks"}

	listing := BuildTextListing(res, columns, textFields)
	assert.Nil(t, listing.Notice)
	assert.Equal(t, []string{"測定日", "選手", "睡眠状況", "特記事項", "備考"}, listing.Headers)
	require.Len(t, listing.Columns, 3)

	// the blank 2024-01-20 row is excluded
	require.Len(t, listing.Rows, 2)
	assert.Equal(t, "A", listing.Rows[0].Entity)
	assert.Equal(t, "2024-01-05", listing.Rows[0].Date)
	assert.Equal(t, []string{"", "右膝に違和感", ""}, listing.Rows[0].Values)
	assert.Equal(t, "B", listing.Rows[1].Entity)
	assert.Equal(t, []string{"良好", "", ""}, listing.Rows[1].Values)
}

func TestBuildTextListing_NoTextColumns(t *testing.T) {
	res := &pipeline.Result{
		Records: []records.Record{rec("A", "2024-01-05", map[string]any{"fatigue_mm": 1.0})},
	}

	listing := BuildTextListing(res, []string{"name", "fatigue_mm"}, textFields)
	require.NotNil(t, listing.Notice)
	assert.Equal(t, pipeline.NoticeNoTextFields, listing.Notice.Kind)
	assert.Empty(t, listing.Rows)
	assert.Empty(t, listing.Columns)
}

func TestBuildTextListing_ColumnsFromRecords(t *testing.T) {
	res := &pipeline.Result{
		Records: []records.Record{
			rec("A", "2024-01-05", map[string]any{"another": "null"}),
		},
	}

	listing := BuildTextListing(res, nil, textFields)
	require.Len(t, listing.Columns, 1)
	assert.Equal(t, "another", listing.Columns[0].Field)
	assert.Empty(t, listing.Rows)
	require.NotNil(t, listing.Notice)
	assert.Equal(t, pipeline.NoticeNoTextData, listing.Notice.Kind)
}
