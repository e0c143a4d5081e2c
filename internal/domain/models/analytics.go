package models

import "time"

// RevenuePoint is one bucket of a revenue trend series.
type RevenuePoint struct {
	Date     string  `json:"date"`
	Revenue  float64 `json:"revenue"`
	Profit   float64 `json:"profit"`
	Sales    int     `json:"sales"`
	Expenses float64 `json:"expenses"`
}

// RevenueSeries is a bucketed revenue trend for a period granularity.
type RevenueSeries struct {
	Period      string         `json:"period"`
	BranchID    string         `json:"branch_id,omitempty"`
	Points      []RevenuePoint `json:"points"`
	Assumptions []string       `json:"assumptions"`
}

// PATAnalysis is a linear revenue to profit-after-tax waterfall.
type PATAnalysis struct {
	Window            string    `json:"window"`
	BranchID          string    `json:"branch_id,omitempty"`
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	BusinessType      string    `json:"business_type"`
	Revenue           float64   `json:"revenue"`
	COGS              float64   `json:"cogs"`
	GrossProfit       float64   `json:"gross_profit"`
	OperatingExpenses float64   `json:"operating_expenses"`
	EBITDA            float64   `json:"ebitda"`
	Depreciation      float64   `json:"depreciation"`
	EBIT              float64   `json:"ebit"`
	Interest          float64   `json:"interest"`
	EBT               float64   `json:"ebt"`
	Tax               float64   `json:"tax"`
	PAT               float64   `json:"pat"`
	GrossMargin       float64   `json:"gross_margin"`
	NetMargin         float64   `json:"net_margin"`
	Assumptions       []string  `json:"assumptions"`
}

// Valuation holds heuristic business value estimates from industry multiples.
type Valuation struct {
	BranchID      string   `json:"branch_id,omitempty"`
	BusinessType  string   `json:"business_type"`
	AnnualRevenue float64  `json:"annual_revenue"`
	AnnualEBITDA  float64  `json:"annual_ebitda"`
	AnnualPAT     float64  `json:"annual_pat"`
	RevenueBased  float64  `json:"revenue_based"`
	EBITDABased   float64  `json:"ebitda_based"`
	PATBased      float64  `json:"pat_based"`
	Average       float64  `json:"average"`
	Confidence    string   `json:"confidence"`
	Assumptions   []string `json:"assumptions"`
}

// Ranking is one scored entry of a staff, client or vendor leaderboard.
type Ranking struct {
	Rank       int                `json:"rank"`
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Score      float64            `json:"score"`
	Tier       string             `json:"tier,omitempty"`
	Components map[string]float64 `json:"components"`
	// Unavailable lists components that had no measured input; their weight
	// was spread over the remaining components.
	Unavailable []string `json:"unavailable,omitempty"`
}
