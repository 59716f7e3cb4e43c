package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/goal-planner/planning"
)

// PlanFile is a YAML plan. Field names match the HTTP request body.
type PlanFile struct {
	InitialBalance               *float64 `yaml:"initial_balance"`
	MonthlyContribution          *float64 `yaml:"monthly_contribution"`
	NonContributionMonthsPerYear *int     `yaml:"non_contribution_months_per_year"`
	TargetBalance                *float64 `yaml:"target_balance"`
	AnnualRealRate               *float64 `yaml:"annual_real_rate"`
	YieldBasis                   string   `yaml:"yield_basis"`
}

// LoadPlanFile reads and decodes a plan file, rejecting unknown keys.
func LoadPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan PlanFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}
	return &plan, nil
}

// Parameters returns the plan as engine parameters. The rate is left at
// zero when the plan does not set one; callers check HasRate.
func (p *PlanFile) Parameters() (planning.PlanParameters, error) {
	var params planning.PlanParameters

	required := []struct {
		name  string
		value *float64
		dst   *float64
	}{
		{"initial_balance", p.InitialBalance, &params.InitialBalance},
		{"monthly_contribution", p.MonthlyContribution, &params.MonthlyContribution},
		{"target_balance", p.TargetBalance, &params.TargetBalance},
	}
	for _, f := range required {
		if f.value == nil {
			return params, &planning.InvalidParameterError{Field: f.name, Reason: "field is required"}
		}
		*f.dst = *f.value
	}

	if p.NonContributionMonthsPerYear != nil {
		params.NonContributionMonthsPerYear = *p.NonContributionMonthsPerYear
	}
	if p.AnnualRealRate != nil {
		params.AnnualRealRate = *p.AnnualRealRate
	}
	return params, nil
}

// HasRate reports whether the plan fixes its own real rate.
func (p *PlanFile) HasRate() bool {
	return p.AnnualRealRate != nil
}
