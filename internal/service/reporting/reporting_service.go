// Package reporting builds the end-of-day snapshots and the weekly owner
// summary pushed over WhatsApp.
package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/domain/money"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
	"github.com/mamadbah2/hisaab/internal/service/analytics"
	"github.com/mamadbah2/hisaab/internal/service/metrics"
)

const (
	dateLayout = "2006-01-02"
	// lowStockListed caps the product names quoted in the weekly text.
	lowStockListed = 5
)

// Exporter publishes archived daily reports somewhere owners can read them.
type Exporter interface {
	ExportDailyReport(ctx context.Context, report models.DailyReport) (bool, error)
}

// Service exposes the daily snapshot and weekly summary.
type Service struct {
	store     *store.Store
	analytics *analytics.Service
	exporter  Exporter
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new reporting service instance. exporter may be nil.
func NewService(st *store.Store, analyticsSvc *analytics.Service, exporter Exporter, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:     st,
		analytics: analyticsSvc,
		exporter:  exporter,
		loc:       loc,
		logger:    logger.Named("reporting"),
		now:       time.Now,
	}
}

// ParseDay reads a YYYY-MM-DD date as midnight in the business timezone.
func (s *Service) ParseDay(raw string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, raw, s.loc)
}

// ReportID is the archive id of the report for day and scope. Rebuilding a
// day overwrites the previous entry.
func ReportID(day time.Time, scope access.Scope) string {
	branch := scope.BranchID
	if branch == "" {
		branch = "all"
	}
	return fmt.Sprintf("report_%s_%s", day.Format(dateLayout), branch)
}

// BuildDailyReport summarises the calendar day containing day, archives it
// and exports it when an exporter is configured. Export failures are logged
// and do not fail the build.
func (s *Service) BuildDailyReport(ctx context.Context, day time.Time, scope access.Scope) (models.DailyReport, error) {
	snap, catalog, err := s.snapshot(ctx, scope)
	if err != nil {
		return models.DailyReport{}, err
	}

	start := dayStart(day.In(s.loc))
	end := start.AddDate(0, 0, 1)

	daySales := salesBetween(snap.Sales, start, end)
	var revenue money.Sum
	for _, sale := range daySales {
		revenue.Add(sale.Total)
	}

	var invoiced money.Sum
	for _, inv := range snap.Invoices {
		d := inv.IssueDate.In(s.loc)
		if inv.Status == models.InvoicePaid && !d.Before(start) && d.Before(end) {
			invoiced.Add(inv.Total)
		}
	}

	totals := metrics.Compute(snap, s.now().In(s.loc))
	cogs := analytics.EstimateCOGS(daySales, catalog)

	report := models.DailyReport{
		ID:              ReportID(start, scope),
		Date:            start,
		BranchID:        scope.BranchID,
		SalesCount:      len(daySales),
		SalesRevenue:    revenue.Float(),
		InvoiceRevenue:  invoiced.Float(),
		EstimatedProfit: money.Round2(revenue.Float() - cogs),
		Expenses:        money.Round2(revenue.Float() * analytics.ExpenseRatio),
		PendingAmount:   totals.PendingAmount,
		LowStockItems:   totals.LowStockItems,
		CreatedAt:       s.now(),
	}

	if err := s.store.DailyReports.Put(ctx, report); err != nil {
		return report, fmt.Errorf("archive daily report: %w", err)
	}

	if s.exporter != nil {
		written, err := s.exporter.ExportDailyReport(ctx, report)
		if err != nil {
			s.logger.Warn("daily report export failed", zap.String("report_id", report.ID), zap.Error(err))
		} else if written {
			s.logger.Info("daily report exported", zap.String("report_id", report.ID))
		}
	}

	return report, nil
}

// ListDailyReports returns archived reports within scope.
func (s *Service) ListDailyReports(ctx context.Context, scope access.Scope) ([]models.DailyReport, error) {
	reports, err := s.store.DailyReports.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list daily reports: %w", err)
	}
	return access.FilterByBranch(reports, scope), nil
}

// GenerateWeeklyReport produces the owner summary for the seven days ending
// with now, compared against the seven days before.
func (s *Service) GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error) {
	snap, catalog, err := s.snapshot(ctx, access.AllBranches)
	if err != nil {
		return "", err
	}

	now = now.In(s.loc)
	end := dayStart(now).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -7)
	prevStart := start.AddDate(0, 0, -7)

	week := salesBetween(snap.Sales, start, end)
	var revenue, previous money.Sum
	for _, sale := range week {
		revenue.Add(sale.Total)
	}
	for _, sale := range salesBetween(snap.Sales, prevStart, start) {
		previous.Add(sale.Total)
	}

	pat := analytics.Waterfall(revenue.Float(), analytics.EstimateCOGS(week, catalog), s.analytics.Industry())

	var b strings.Builder
	fmt.Fprintf(&b, "Weekly report (%s to %s)\n", start.Format(dateLayout), end.AddDate(0, 0, -1).Format(dateLayout))
	fmt.Fprintf(&b, "Revenue: %.2f from %d sales\n", revenue.Float(), len(week))
	fmt.Fprintf(&b, "Growth vs previous week: %.2f%%\n", metrics.Growth(revenue.Float(), previous.Float()))
	fmt.Fprintf(&b, "Estimated PAT: %.2f (net margin %.2f%%)\n", pat.PAT, pat.NetMargin)

	rankings, err := s.analytics.StaffRankings(ctx, access.AllBranches)
	if err != nil {
		s.logger.Warn("staff rankings unavailable for weekly report", zap.Error(err))
	}
	if len(rankings) > 0 {
		fmt.Fprintf(&b, "Top staff: %s (score %.0f)\n", rankings[0].Name, rankings[0].Score)
	} else {
		b.WriteString("Top staff: no staff recorded yet.\n")
	}

	var low []string
	for _, p := range snap.Products {
		if p.LowStock() {
			low = append(low, p.Name)
		}
	}
	switch {
	case len(low) == 0:
		b.WriteString("Low stock: none.")
	case len(low) > lowStockListed:
		fmt.Fprintf(&b, "Low stock (%d): %s and %d more.", len(low), strings.Join(low[:lowStockListed], ", "), len(low)-lowStockListed)
	default:
		fmt.Fprintf(&b, "Low stock (%d): %s.", len(low), strings.Join(low, ", "))
	}

	return b.String(), nil
}

// snapshot reads the records of scope. catalog is the unscoped product list
// used to price sold items, as the analytics engine does.
func (s *Service) snapshot(ctx context.Context, scope access.Scope) (snap metrics.Snapshot, catalog []models.Product, err error) {
	sales, err := s.store.Sales.List(ctx)
	if err != nil {
		return metrics.Snapshot{}, nil, fmt.Errorf("list sales: %w", err)
	}
	invoices, err := s.store.Invoices.List(ctx)
	if err != nil {
		return metrics.Snapshot{}, nil, fmt.Errorf("list invoices: %w", err)
	}
	products, err := s.store.Products.List(ctx)
	if err != nil {
		return metrics.Snapshot{}, nil, fmt.Errorf("list products: %w", err)
	}
	snap = metrics.Snapshot{
		Sales:    access.FilterByBranch(sales, scope),
		Invoices: access.FilterByBranch(invoices, scope),
		Products: access.FilterByBranch(products, scope),
	}
	return snap, products, nil
}

// salesBetween keeps counting sales dated in [start, end).
func salesBetween(sales []models.Sale, start, end time.Time) []models.Sale {
	var out []models.Sale
	for _, sale := range sales {
		if sale.Status == models.SaleCancelled || sale.Status == models.SaleRefunded {
			continue
		}
		d := sale.Date.In(start.Location())
		if d.Before(start) || !d.Before(end) {
			continue
		}
		out = append(out, sale)
	}
	return out
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
