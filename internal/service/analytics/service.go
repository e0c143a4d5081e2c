// Package analytics derives owner-facing reports from the record stores:
// revenue trends, a profit-after-tax waterfall, a valuation estimate and
// staff, client and vendor rankings.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/domain/money"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

var (
	// ErrUnknownPeriod is returned for an unsupported revenue series period.
	ErrUnknownPeriod = errors.New("unknown period")
	// ErrUnknownWindow is returned for an unsupported PAT window.
	ErrUnknownWindow = errors.New("unknown window")
)

// Period is the bucket granularity of a revenue series.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Window is the date range of a PAT analysis, always ending now.
type Window string

const (
	WindowMonth   Window = "month"
	WindowQuarter Window = "quarter"
	WindowYear    Window = "year"
)

// Service computes analytics over the record stores.
type Service struct {
	store    *store.Store
	industry Industry
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires an analytics service for the given business type.
func NewService(st *store.Store, businessType string, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    st,
		industry: LookupIndustry(businessType),
		loc:      loc,
		logger:   logger.Named("analytics"),
		now:      time.Now,
	}
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) salesAndProducts(ctx context.Context, scope access.Scope) ([]models.Sale, []models.Product, error) {
	sales, err := s.store.Sales.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list sales: %w", err)
	}
	// Products are not narrowed by branch: a sale may reference any
	// catalog entry for its cost.
	products, err := s.store.Products.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list products: %w", err)
	}
	return countable(access.FilterByBranch(sales, scope)), products, nil
}

func countable(sales []models.Sale) []models.Sale {
	out := make([]models.Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.Status == models.SaleCancelled || sale.Status == models.SaleRefunded {
			continue
		}
		out = append(out, sale)
	}
	return out
}

// costIndex resolves unit costs by product id, then by lower-cased name.
type costIndex struct {
	byID   map[string]float64
	byName map[string]float64
}

func newCostIndex(products []models.Product) costIndex {
	idx := costIndex{byID: make(map[string]float64, len(products)), byName: make(map[string]float64, len(products))}
	for _, p := range products {
		idx.byID[p.ID] = p.Cost
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if _, exists := idx.byName[name]; !exists {
			idx.byName[name] = p.Cost
		}
	}
	return idx
}

func (c costIndex) unitCost(item models.LineItem) float64 {
	if item.ProductID != "" {
		if cost, ok := c.byID[item.ProductID]; ok {
			return cost
		}
	}
	if cost, ok := c.byName[strings.ToLower(strings.TrimSpace(item.Name))]; ok {
		return cost
	}
	return item.Price * FallbackCostRatio
}

// saleCost is the estimated cost of goods for one sale.
func (c costIndex) saleCost(sale models.Sale) float64 {
	var sum money.Sum
	for _, item := range sale.Products {
		sum.AddProduct(item.Quantity, c.unitCost(item))
	}
	return sum.Float()
}

// RevenueSeries buckets sales into calendar windows ending with the current
// one: 30 days, 12 Monday-based weeks, 12 months or 5 years.
func (s *Service) RevenueSeries(ctx context.Context, scope access.Scope, period Period) (models.RevenueSeries, error) {
	buckets, err := seriesBuckets(period, s.clock())
	if err != nil {
		return models.RevenueSeries{}, err
	}
	sales, products, err := s.salesAndProducts(ctx, scope)
	if err != nil {
		return models.RevenueSeries{}, err
	}
	costs := newCostIndex(products)

	type acc struct {
		revenue, profit money.Sum
		count           int
	}
	accs := make([]acc, len(buckets))
	for _, sale := range sales {
		d := sale.Date.In(s.loc)
		i := findBucket(buckets, d)
		if i < 0 {
			continue
		}
		if !accs[i].revenue.Add(sale.Total) {
			s.logger.Debug("skip sale with non-finite total", zap.String("sale_id", sale.ID))
			continue
		}
		accs[i].profit.Add(sale.Total - costs.saleCost(sale))
		accs[i].count++
	}

	points := make([]models.RevenuePoint, len(buckets))
	for i, b := range buckets {
		revenue := accs[i].revenue.Float()
		points[i] = models.RevenuePoint{
			Date:     b.label,
			Revenue:  revenue,
			Profit:   accs[i].profit.Float(),
			Sales:    accs[i].count,
			Expenses: money.Round2(revenue * ExpenseRatio),
		}
	}

	return models.RevenueSeries{
		Period:   string(period),
		BranchID: scope.BranchID,
		Points:   points,
		Assumptions: []string{
			fmt.Sprintf("expenses are estimated at %.0f%% of revenue", ExpenseRatio*100),
			fmt.Sprintf("unit cost falls back to %.0f%% of selling price when the product cost is unknown", FallbackCostRatio*100),
		},
	}, nil
}

type bucket struct {
	start, end time.Time
	label      string
}

func seriesBuckets(period Period, now time.Time) ([]bucket, error) {
	loc := now.Location()
	var (
		count  int
		anchor time.Time
		step   func(t time.Time, n int) time.Time
		layout string
	)
	switch period {
	case PeriodDaily:
		count, layout = 30, "2006-01-02"
		anchor = dayStart(now)
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }
	case PeriodWeekly:
		count, layout = 12, "2006-01-02"
		anchor = mondayStart(now)
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) }
	case PeriodMonthly:
		count, layout = 12, "2006-01"
		anchor = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) }
	case PeriodYearly:
		count, layout = 5, "2006"
		anchor = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		step = func(t time.Time, n int) time.Time { return t.AddDate(n, 0, 0) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
	}

	out := make([]bucket, count)
	for i := 0; i < count; i++ {
		start := step(anchor, i-(count-1))
		out[i] = bucket{start: start, end: step(start, 1), label: start.Format(layout)}
	}
	return out, nil
}

func findBucket(buckets []bucket, t time.Time) int {
	for i, b := range buckets {
		if !t.Before(b.start) && t.Before(b.end) {
			return i
		}
	}
	return -1
}

// PAT runs the profit-after-tax waterfall over the window ending now.
func (s *Service) PAT(ctx context.Context, scope access.Scope, window Window) (models.PATAnalysis, error) {
	now := s.clock()
	from, err := windowStart(window, now)
	if err != nil {
		return models.PATAnalysis{}, err
	}
	sales, products, err := s.salesAndProducts(ctx, scope)
	if err != nil {
		return models.PATAnalysis{}, err
	}

	var revenue, cogs money.Sum
	costs := newCostIndex(products)
	for _, sale := range sales {
		d := sale.Date.In(s.loc)
		if d.Before(from) || d.After(now) {
			continue
		}
		if revenue.Add(sale.Total) {
			cogs.Add(costs.saleCost(sale))
		}
	}

	pat := Waterfall(revenue.Float(), cogs.Float(), s.industry)
	pat.Window = string(window)
	pat.BranchID = scope.BranchID
	pat.From, pat.To = from, now
	return pat, nil
}

// Waterfall subtracts cost of goods, operating expenses, depreciation,
// interest and tax from revenue in that order. Tax is never negative.
func Waterfall(revenue, cogs float64, ind Industry) models.PATAnalysis {
	gross := revenue - cogs
	opex := revenue * ind.OpexRatio
	ebitda := gross - opex
	depreciation := revenue * DepreciationRate
	ebit := ebitda - depreciation
	interest := revenue * InterestRate
	ebt := ebit - interest
	tax := max(0, ebt*TaxRate)
	pat := ebt - tax

	return models.PATAnalysis{
		BusinessType:      ind.Name,
		Revenue:           money.Round2(revenue),
		COGS:              money.Round2(cogs),
		GrossProfit:       money.Round2(gross),
		OperatingExpenses: money.Round2(opex),
		EBITDA:            money.Round2(ebitda),
		Depreciation:      money.Round2(depreciation),
		EBIT:              money.Round2(ebit),
		Interest:          money.Round2(interest),
		EBT:               money.Round2(ebt),
		Tax:               money.Round2(tax),
		PAT:               money.Round2(pat),
		GrossMargin:       money.Percent(gross, revenue),
		NetMargin:         money.Percent(pat, revenue),
		Assumptions:       ind.patAssumptions(),
	}
}

func windowStart(window Window, now time.Time) (time.Time, error) {
	loc := now.Location()
	switch window {
	case WindowMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), nil
	case WindowQuarter:
		first := time.Month((int(now.Month())-1)/3*3 + 1)
		return time.Date(now.Year(), first, 1, 0, 0, 0, 0, loc), nil
	case WindowYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownWindow, window)
	}
}

// Valuation annualises the year-to-date waterfall and applies the business
// type's multiples.
func (s *Service) Valuation(ctx context.Context, scope access.Scope) (models.Valuation, error) {
	ytd, err := s.PAT(ctx, scope, WindowYear)
	if err != nil {
		return models.Valuation{}, err
	}
	elapsedDays := ytd.To.Sub(ytd.From).Hours() / 24
	return Value(ytd, elapsedDays, s.industry), nil
}

// Value turns a year-to-date waterfall covering elapsedDays into a
// valuation. Less than a day of history counts as one day.
func Value(ytd models.PATAnalysis, elapsedDays float64, ind Industry) models.Valuation {
	factor := 365 / max(1, elapsedDays)
	annualRevenue := ytd.Revenue * factor
	annualEBITDA := ytd.EBITDA * factor
	annualPAT := ytd.PAT * factor

	revenueBased := max(0, annualRevenue*ind.RevenueMultiple)
	ebitdaBased := max(0, annualEBITDA*ind.EBITDAMultiple)
	patBased := max(0, annualPAT*ind.PATMultiple)

	return models.Valuation{
		BranchID:      ytd.BranchID,
		BusinessType:  ind.Name,
		AnnualRevenue: money.Round2(annualRevenue),
		AnnualEBITDA:  money.Round2(annualEBITDA),
		AnnualPAT:     money.Round2(annualPAT),
		RevenueBased:  money.Round2(revenueBased),
		EBITDABased:   money.Round2(ebitdaBased),
		PATBased:      money.Round2(patBased),
		Average:       money.Round2((revenueBased + ebitdaBased + patBased) / 3),
		Confidence:    ValuationConfidence,
		Assumptions:   ind.valuationAssumptions(),
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// mondayStart returns midnight of the Monday starting t's week.
func mondayStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return dayStart(t).AddDate(0, 0, -offset)
}

// EstimateCOGS prices the items of sales with the same unit cost lookup the
// waterfall uses.
func EstimateCOGS(sales []models.Sale, products []models.Product) float64 {
	costs := newCostIndex(products)
	var cogs money.Sum
	for _, sale := range sales {
		cogs.Add(costs.saleCost(sale))
	}
	return cogs.Float()
}

// Industry returns the ratios and multiples in use.
func (s *Service) Industry() Industry {
	return s.industry
}
