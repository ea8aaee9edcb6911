package results

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rotor-modal/client/internal/models"
)

// MetTarget is the modal_target value that counts as success.
const MetTarget = "Met"

// Summary labels.
const (
	LabelModalTarget     = "Modal Separation Target"
	LabelInplaneModes    = "Inplane Modes"
	LabelOutOfPlaneModes = "Out-of-plane Modes"
)

// NoResultsNotice replaces the table when the result set is empty.
const NoResultsNotice = "No results to display."

// SummaryField is one labelled line above the table. Tag is "positive",
// "negative" or empty.
type SummaryField struct {
	Label string `json:"label" msgpack:"label"`
	Value string `json:"value" msgpack:"value"`
	Tag   string `json:"tag,omitempty" msgpack:"tag,omitempty"`
}

// CellView is one rendered table cell.
type CellView struct {
	Text     string                `json:"text" msgpack:"text"`
	Class    models.Classification `json:"class,omitempty" msgpack:"class,omitempty"`
	Emphasis string                `json:"emphasis,omitempty" msgpack:"emphasis,omitempty"`
}

// ReportView is the render model for the results page.
type ReportView struct {
	ID      string         `json:"id" msgpack:"id"`
	Summary []SummaryField `json:"summary" msgpack:"summary"`
	Headers []string       `json:"headers" msgpack:"headers"`
	Rows    [][]CellView   `json:"rows" msgpack:"rows"`
	Empty   bool           `json:"empty" msgpack:"empty"`
	Notice  string         `json:"notice,omitempty" msgpack:"notice,omitempty"`
}

// BuildView renders result into a ReportView. Classification is recomputed
// on every call.
func BuildView(id string, result *models.AnalysisResult, in *Interpreter) *ReportView {
	view := &ReportView{ID: id}
	if result == nil {
		view.Empty = true
		view.Notice = NoResultsNotice
		return view
	}

	if result.ModalTarget != nil && *result.ModalTarget != "" {
		tag := "negative"
		if *result.ModalTarget == MetTarget {
			tag = "positive"
		}
		view.Summary = append(view.Summary, SummaryField{
			Label: LabelModalTarget,
			Value: *result.ModalTarget,
			Tag:   tag,
		})
	}
	if result.InplaneModes.Present() {
		view.Summary = append(view.Summary, SummaryField{Label: LabelInplaneModes, Value: result.InplaneModes.String()})
	}
	if result.OutOfPlaneModes.Present() {
		view.Summary = append(view.Summary, SummaryField{Label: LabelOutOfPlaneModes, Value: result.OutOfPlaneModes.String()})
	}

	if len(result.Results) == 0 {
		view.Empty = true
		view.Notice = NoResultsNotice
		return view
	}

	view.Headers = result.Columns()
	classified := in.Interpret(result)

	view.Rows = make([][]CellView, len(result.Results))
	for i, row := range result.Results {
		cells := make([]CellView, len(view.Headers))
		for j, header := range view.Headers {
			v, ok := row.Get(header)
			cells[j] = CellView{Text: FormatCell(v, ok)}
			if cell, found := classified[i][header]; found {
				cells[j].Class = cell.Class
				cells[j].Emphasis = cell.Class.Emphasis()
			}
		}
		view.Rows[i] = cells
	}
	return view
}

// FormatCell renders a cell value: numbers with two decimals, null or
// missing as "NaN", anything else as-is.
func FormatCell(value any, present bool) string {
	if !present || value == nil {
		return "NaN"
	}
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', 2, 64)
	case int:
		return strconv.FormatFloat(float64(v), 'f', 2, 64)
	case int64:
		return strconv.FormatFloat(float64(v), 'f', 2, 64)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', 2, 64)
		}
		return v.String()
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
