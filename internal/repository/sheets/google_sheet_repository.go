package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/hisaab/internal/config"
	"github.com/mamadbah2/hisaab/internal/domain/models"
)

const (
	dateLayout = "2006-01-02"
	// DailyReportsRange is where end-of-day snapshots are appended.
	DailyReportsRange = "DailyReports!A:K"
	dailyDatesRange   = "DailyReports!A:B"
)

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository
// instance. Extra client options are appended after the credentials.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if cfg.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger.Named("sheets"),
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// ReportExporter appends daily reports to a spreadsheet, once per date and
// branch.
type ReportExporter struct {
	repo Repository
}

// NewReportExporter wraps repo.
func NewReportExporter(repo Repository) *ReportExporter {
	return &ReportExporter{repo: repo}
}

// ExportDailyReport appends report unless a row for the same date and
// branch is already present. It reports whether a row was written.
func (e *ReportExporter) ExportDailyReport(ctx context.Context, report models.DailyReport) (bool, error) {
	rows, err := e.repo.ReadRange(ctx, dailyDatesRange)
	if err != nil {
		return false, err
	}
	date := report.Date.Format(dateLayout)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		if fmt.Sprint(row[0]) == date && fmt.Sprint(row[1]) == branchCell(report.BranchID) {
			return false, nil
		}
	}
	if err := e.repo.WriteRow(ctx, DailyReportsRange, DailyReportRow(report)); err != nil {
		return false, err
	}
	return true, nil
}

// DailyReportRow lays out a report in sheet column order.
func DailyReportRow(report models.DailyReport) []interface{} {
	return []interface{}{
		report.Date.Format(dateLayout),
		branchCell(report.BranchID),
		report.SalesCount,
		report.SalesRevenue,
		report.InvoiceRevenue,
		report.EstimatedProfit,
		report.Expenses,
		report.PendingAmount,
		report.LowStockItems,
		report.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		report.ID,
	}
}

func branchCell(branchID string) string {
	if branchID == "" {
		return "all"
	}
	return branchID
}
