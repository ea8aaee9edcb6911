package models

// Classification tags a distinguished cell against the frequency threshold.
type Classification string

const (
	BelowThreshold     Classification = "BELOW_THRESHOLD"
	AtOrAboveThreshold Classification = "AT_OR_ABOVE_THRESHOLD"
)

// ClassifiedCell is derived from a result cell at render time.
type ClassifiedCell struct {
	Column string         `json:"column"`
	Raw    any            `json:"raw"`
	Parsed bool           `json:"parsed"`
	Number float64        `json:"number,omitempty"`
	Class  Classification `json:"class"`
}

// Emphasis maps a classification to the display emphasis used by views.
func (c Classification) Emphasis() string {
	switch c {
	case AtOrAboveThreshold:
		return "positive"
	case BelowThreshold:
		return "negative"
	default:
		return ""
	}
}
