// Package results turns an analysis payload into the classified report shown
// to the user, and holds finished reports until they are viewed.
package results

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotor-modal/client/internal/models"
)

// ClassifiedRow maps each distinguished column present in the result set to
// its classification for one row.
type ClassifiedRow map[string]models.ClassifiedCell

// Interpreter classifies the distinguished frequency-difference columns.
// It holds no per-result state and is safe for concurrent use.
type Interpreter struct {
	rules models.ClassificationRules
}

// NewInterpreter creates an interpreter for the given rules.
func NewInterpreter(rules models.ClassificationRules) *Interpreter {
	return &Interpreter{rules: rules}
}

// Rules returns the active rules.
func (in *Interpreter) Rules() models.ClassificationRules {
	return in.rules
}

// IsDistinguished reports whether column receives a classification.
func (in *Interpreter) IsDistinguished(column string) bool {
	for _, c := range in.rules.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Columns returns the distinguished columns present in result, in rule order.
// Absent columns are skipped.
func (in *Interpreter) Columns(result *models.AnalysisResult) []string {
	var present []string
	for _, c := range in.rules.Columns {
		if result.HasColumn(c) {
			present = append(present, c)
		}
	}
	return present
}

// Classify derives the classification of one cell. A cell that is missing,
// null, empty, "nan" or not a number does not meet the target.
func (in *Interpreter) Classify(column string, value any, present bool) models.ClassifiedCell {
	cell := models.ClassifiedCell{
		Column: column,
		Raw:    value,
		Class:  models.BelowThreshold,
	}
	if !present {
		return cell
	}

	n, ok := parseNumber(value)
	if !ok {
		return cell
	}
	cell.Parsed = true
	cell.Number = n
	if n > in.rules.Threshold {
		cell.Class = models.AtOrAboveThreshold
	}
	return cell
}

// Interpret classifies every row of result. The output has one entry per
// row; rows of a result without distinguished columns map to empty rows.
func (in *Interpreter) Interpret(result *models.AnalysisResult) []ClassifiedRow {
	if result == nil {
		return nil
	}
	columns := in.Columns(result)
	out := make([]ClassifiedRow, len(result.Results))
	for i, row := range result.Results {
		classified := make(ClassifiedRow, len(columns))
		for _, col := range columns {
			v, ok := row.Get(col)
			classified[col] = in.Classify(col, v, ok)
		}
		out[i] = classified
	}
	return out
}

// Counts tallies classifications across all interpreted rows.
func Counts(rows []ClassifiedRow) (below, above int) {
	for _, row := range rows {
		for _, cell := range row {
			if cell.Class == models.AtOrAboveThreshold {
				above++
			} else {
				below++
			}
		}
	}
	return below, above
}

func parseNumber(value any) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, ok := parseLeadingNumber(v)
		if !ok {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// leadingNumber matches the decimal literal a cell string starts with.
// Anything after it, such as a unit suffix, is ignored.
var leadingNumber = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// parseLeadingNumber reads the number at the start of s after leading
// whitespace. Only plain decimals and the literal Infinity are accepted:
// "305 Hz" is 305, "0x1p9" is 0, "1_000" is 1 and "inf" is not a number.
func parseLeadingNumber(s string) (float64, bool) {
	lit := leadingNumber.FindString(strings.TrimLeft(s, " \t\n\r\v\f"))
	if lit == "" {
		return 0, false
	}
	switch lit {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}
