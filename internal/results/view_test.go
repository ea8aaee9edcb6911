package results

import (
	"testing"

	"github.com/rotor-modal/client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		present bool
		want    string
	}{
		{"rounds to two decimals", 12.3456, true, "12.35"},
		{"pads integers", 150.0, true, "150.00"},
		{"null", nil, true, "NaN"},
		{"missing", nil, false, "NaN"},
		{"raw string", "250.0", true, "250.0"},
		{"bool", true, true, "true"},
		{"int", 7, true, "7.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCell(tt.value, tt.present))
		})
	}
}

func TestBuildView_EndToEndPayload(t *testing.T) {
	body := []byte(`{"results":[{"Mode":"1","Lower Frequency Diff (Hz)":150,"Upper Frequency Diff (Hz)":400}],"modal_target":"Met"}`)
	result, err := models.DecodeAnalysisResult(body)
	require.NoError(t, err)

	view := BuildView("r1", result, NewInterpreter(DefaultRules()))

	require.Len(t, view.Summary, 1)
	assert.Equal(t, SummaryField{Label: LabelModalTarget, Value: "Met", Tag: "positive"}, view.Summary[0])

	assert.Equal(t, []string{"Mode", LowerDiffColumn, UpperDiffColumn}, view.Headers)
	require.Len(t, view.Rows, 1)
	row := view.Rows[0]
	assert.Equal(t, CellView{Text: "1"}, row[0])
	assert.Equal(t, CellView{Text: "150.00", Class: models.BelowThreshold, Emphasis: "negative"}, row[1])
	assert.Equal(t, CellView{Text: "400.00", Class: models.AtOrAboveThreshold, Emphasis: "positive"}, row[2])
	assert.False(t, view.Empty)
}

func TestBuildView_Summary(t *testing.T) {
	body := []byte(`{"results":[],"modal_target":"Not Met","inplane_modes":["1","2",4],"out_of_plane_modes":"3"}`)
	result, err := models.DecodeAnalysisResult(body)
	require.NoError(t, err)

	view := BuildView("r2", result, NewInterpreter(DefaultRules()))

	assert.Equal(t, []SummaryField{
		{Label: LabelModalTarget, Value: "Not Met", Tag: "negative"},
		{Label: LabelInplaneModes, Value: "1, 2, 4"},
		{Label: LabelOutOfPlaneModes, Value: "3"},
	}, view.Summary)
	assert.True(t, view.Empty)
	assert.Equal(t, NoResultsNotice, view.Notice)
	assert.Nil(t, view.Rows)
}

func TestBuildView_MissingCellsAndNoSummary(t *testing.T) {
	result := &models.AnalysisResult{Results: []models.Row{
		models.NewRow("Mode", "1", "Frequency (Hz)", 1234.5678),
		models.NewRow("Mode", "2"),
	}}

	view := BuildView("r3", result, NewInterpreter(DefaultRules()))

	assert.Empty(t, view.Summary)
	assert.Equal(t, "1234.57", view.Rows[0][1].Text)
	assert.Equal(t, "NaN", view.Rows[1][1].Text)
	assert.Empty(t, view.Rows[1][1].Emphasis)
}

func TestBuildView_NilResult(t *testing.T) {
	view := BuildView("", nil, NewInterpreter(DefaultRules()))
	assert.True(t, view.Empty)
}
