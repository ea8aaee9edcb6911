package models

// ClassificationRules defines which result columns are compared against the
// frequency threshold. Loaded from an optional YAML file.
type ClassificationRules struct {
	Threshold float64  `json:"threshold" yaml:"threshold"`
	Columns   []string `json:"columns" yaml:"columns"`
}
