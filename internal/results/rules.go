package results

import (
	"fmt"
	"io"
	"os"

	"github.com/rotor-modal/client/internal/models"
	"gopkg.in/yaml.v3"
)

// Distinguished column names produced by the analysis backend.
const (
	LowerDiffColumn = "Lower Frequency Diff (Hz)"
	UpperDiffColumn = "Upper Frequency Diff (Hz)"
)

// DefaultThresholdHz is the modal separation target. Values at or below it
// do not meet the target.
const DefaultThresholdHz = 300.0

// DefaultRules returns the built-in classification rules.
func DefaultRules() models.ClassificationRules {
	return models.ClassificationRules{
		Threshold: DefaultThresholdHz,
		Columns:   []string{LowerDiffColumn, UpperDiffColumn},
	}
}

// LoadRules reads classification rules from a YAML file. An empty path
// yields the defaults; keys missing from the file keep their default value.
func LoadRules(filePath string) (models.ClassificationRules, error) {
	if filePath == "" {
		return DefaultRules(), nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return models.ClassificationRules{}, fmt.Errorf("opening rules file: %w", err)
	}
	defer file.Close()

	return LoadRulesFromReader(file)
}

// LoadRulesFromReader parses rules from an io.Reader.
func LoadRulesFromReader(r io.Reader) (models.ClassificationRules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.ClassificationRules{}, err
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return models.ClassificationRules{}, fmt.Errorf("parsing rules: %w", err)
	}
	if len(rules.Columns) == 0 {
		return models.ClassificationRules{}, fmt.Errorf("parsing rules: no columns configured")
	}
	return rules, nil
}
