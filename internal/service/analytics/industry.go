package analytics

import (
	"fmt"
	"strings"
)

// Fixed ratios applied by every business type.
const (
	ExpenseRatio      = 0.20
	FallbackCostRatio = 0.60
	DepreciationRate  = 0.02
	InterestRate      = 0.01
	TaxRate           = 0.30

	// ValuationConfidence is a fixed label; it is not derived from data.
	ValuationConfidence = "medium"
)

// Industry holds the ratio and multiple table for one business type.
type Industry struct {
	Name            string
	OpexRatio       float64
	RevenueMultiple float64
	EBITDAMultiple  float64
	PATMultiple     float64
}

const defaultIndustry = "retail"

var industries = map[string]Industry{
	"retail":        {Name: "retail", OpexRatio: 0.25, RevenueMultiple: 0.5, EBITDAMultiple: 4, PATMultiple: 8},
	"restaurant":    {Name: "restaurant", OpexRatio: 0.35, RevenueMultiple: 0.8, EBITDAMultiple: 5, PATMultiple: 10},
	"manufacturing": {Name: "manufacturing", OpexRatio: 0.20, RevenueMultiple: 1.0, EBITDAMultiple: 6, PATMultiple: 12},
	"services":      {Name: "services", OpexRatio: 0.40, RevenueMultiple: 1.5, EBITDAMultiple: 8, PATMultiple: 15},
	"wholesale":     {Name: "wholesale", OpexRatio: 0.15, RevenueMultiple: 0.4, EBITDAMultiple: 4, PATMultiple: 8},
	"technology":    {Name: "technology", OpexRatio: 0.45, RevenueMultiple: 3.0, EBITDAMultiple: 12, PATMultiple: 20},
}

// LookupIndustry returns the table for businessType, falling back to retail
// for unknown types.
func LookupIndustry(businessType string) Industry {
	if ind, ok := industries[strings.ToLower(strings.TrimSpace(businessType))]; ok {
		return ind
	}
	return industries[defaultIndustry]
}

func (ind Industry) patAssumptions() []string {
	return []string{
		fmt.Sprintf("operating expenses are %.0f%% of revenue (%s)", ind.OpexRatio*100, ind.Name),
		fmt.Sprintf("depreciation is %.0f%% of revenue", DepreciationRate*100),
		fmt.Sprintf("interest is %.0f%% of revenue", InterestRate*100),
		fmt.Sprintf("tax is a flat %.0f%% of positive earnings before tax", TaxRate*100),
		fmt.Sprintf("unit cost falls back to %.0f%% of selling price when the product cost is unknown", FallbackCostRatio*100),
	}
}

func (ind Industry) valuationAssumptions() []string {
	return []string{
		fmt.Sprintf("revenue multiple %.1fx, EBITDA multiple %.1fx, PAT multiple %.1fx (%s)",
			ind.RevenueMultiple, ind.EBITDAMultiple, ind.PATMultiple, ind.Name),
		"year-to-date figures are annualised by elapsed days",
		"negative earnings value at zero",
		"confidence is a fixed label, not a statistical measure",
	}
}
