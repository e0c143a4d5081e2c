package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/repository/memory"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

// Thursday.
var now = time.Date(2024, time.June, 20, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, businessType string) (*Service, *store.Store) {
	t.Helper()
	st := memory.New()
	svc := NewService(st, businessType, time.UTC, nil)
	svc.now = func() time.Time { return now }
	return svc, st
}

func f(v float64) *float64 { return &v }

func TestSeriesBuckets(t *testing.T) {
	tests := []struct {
		period     Period
		count      int
		firstLabel string
		lastLabel  string
	}{
		{PeriodDaily, 30, "2024-05-22", "2024-06-20"},
		{PeriodWeekly, 12, "2024-04-01", "2024-06-17"},
		{PeriodMonthly, 12, "2023-07", "2024-06"},
		{PeriodYearly, 5, "2020", "2024"},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			buckets, err := seriesBuckets(tt.period, now)
			require.NoError(t, err)
			require.Len(t, buckets, tt.count)
			assert.Equal(t, tt.firstLabel, buckets[0].label)
			assert.Equal(t, tt.lastLabel, buckets[len(buckets)-1].label)
			for i := 1; i < len(buckets); i++ {
				assert.Equal(t, buckets[i-1].end, buckets[i].start)
			}
		})
	}

	_, err := seriesBuckets("hourly", now)
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestMondayStart(t *testing.T) {
	assert.Equal(t, time.Date(2024, time.June, 17, 0, 0, 0, 0, time.UTC), mondayStart(now))
	sunday := time.Date(2024, time.June, 23, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.June, 17, 0, 0, 0, 0, time.UTC), mondayStart(sunday))
}

func TestRevenueSeriesProfitAndExpenses(t *testing.T) {
	svc, st := newTestService(t, "retail")
	ctx := context.Background()

	require.NoError(t, st.Products.Put(ctx, models.Product{ID: "p1", Name: "Rice", Price: 20, Cost: 12}))
	require.NoError(t, st.Sales.Put(ctx, models.Sale{
		ID: "s1", Total: 100, Date: now,
		Products: []models.LineItem{{ProductID: "p1", Quantity: 5, Price: 20}},
	}))
	require.NoError(t, st.Sales.Put(ctx, models.Sale{
		ID: "s2", Total: 50, Date: now.AddDate(0, 0, -1),
		Products: []models.LineItem{{Name: "unknown", Quantity: 1, Price: 50}},
	}))
	require.NoError(t, st.Sales.Put(ctx, models.Sale{ID: "s3", Total: 70, Date: now, Status: models.SaleCancelled}))
	require.NoError(t, st.Sales.Put(ctx, models.Sale{ID: "s4", Total: 999, Date: now.AddDate(-1, 0, 0)}))

	series, err := svc.RevenueSeries(ctx, access.AllBranches, PeriodDaily)
	require.NoError(t, err)
	require.Len(t, series.Points, 30)

	today := series.Points[29]
	assert.Equal(t, "2024-06-20", today.Date)
	assert.Equal(t, 100.0, today.Revenue)
	assert.Equal(t, 40.0, today.Profit)
	assert.Equal(t, 20.0, today.Expenses)
	assert.Equal(t, 1, today.Sales)

	yesterday := series.Points[28]
	assert.Equal(t, 50.0, yesterday.Revenue)
	assert.Equal(t, 20.0, yesterday.Profit)
	assert.NotEmpty(t, series.Assumptions)

	yearly, err := svc.RevenueSeries(ctx, access.AllBranches, PeriodYearly)
	require.NoError(t, err)
	assert.Equal(t, 999.0, yearly.Points[3].Revenue)
	assert.Equal(t, 150.0, yearly.Points[4].Revenue)
}

func TestWaterfall(t *testing.T) {
	pat := Waterfall(1000, 600, LookupIndustry("retail"))

	assert.Equal(t, 400.0, pat.GrossProfit)
	assert.Equal(t, 250.0, pat.OperatingExpenses)
	assert.Equal(t, 150.0, pat.EBITDA)
	assert.Equal(t, 20.0, pat.Depreciation)
	assert.Equal(t, 130.0, pat.EBIT)
	assert.Equal(t, 10.0, pat.Interest)
	assert.Equal(t, 120.0, pat.EBT)
	assert.Equal(t, 36.0, pat.Tax)
	assert.Equal(t, 84.0, pat.PAT)
	assert.Equal(t, 40.0, pat.GrossMargin)
	assert.Equal(t, 8.4, pat.NetMargin)
	assert.Len(t, pat.Assumptions, 5)
}

func TestWaterfallClampsTax(t *testing.T) {
	pat := Waterfall(100, 90, LookupIndustry("services"))
	assert.Less(t, pat.EBT, 0.0)
	assert.Equal(t, 0.0, pat.Tax)
	assert.Equal(t, pat.EBT, pat.PAT)

	empty := Waterfall(0, 0, LookupIndustry("retail"))
	assert.Equal(t, 0.0, empty.GrossMargin)
	assert.Equal(t, 0.0, empty.NetMargin)
}

func TestLookupIndustryFallsBack(t *testing.T) {
	assert.Equal(t, "restaurant", LookupIndustry(" Restaurant ").Name)
	assert.Equal(t, "retail", LookupIndustry("space mining").Name)
}

func TestPATWindows(t *testing.T) {
	svc, st := newTestService(t, "retail")
	ctx := context.Background()

	require.NoError(t, st.Sales.Put(ctx, models.Sale{ID: "jun", Total: 100, Date: now.AddDate(0, 0, -2)}))
	require.NoError(t, st.Sales.Put(ctx, models.Sale{ID: "apr", Total: 200, Date: time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)}))
	require.NoError(t, st.Sales.Put(ctx, models.Sale{ID: "feb", Total: 300, Date: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)}))

	month, err := svc.PAT(ctx, access.AllBranches, WindowMonth)
	require.NoError(t, err)
	assert.Equal(t, 100.0, month.Revenue)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), month.From)

	quarter, err := svc.PAT(ctx, access.AllBranches, WindowQuarter)
	require.NoError(t, err)
	assert.Equal(t, 300.0, quarter.Revenue)

	year, err := svc.PAT(ctx, access.AllBranches, WindowYear)
	require.NoError(t, err)
	assert.Equal(t, 600.0, year.Revenue)

	_, err = svc.PAT(ctx, access.AllBranches, "decade")
	assert.ErrorIs(t, err, ErrUnknownWindow)
}

func TestValueAnnualises(t *testing.T) {
	ytd := Waterfall(1000, 600, LookupIndustry("retail"))

	v := Value(ytd, 182.5, LookupIndustry("retail"))

	assert.Equal(t, 2000.0, v.AnnualRevenue)
	assert.Equal(t, 300.0, v.AnnualEBITDA)
	assert.Equal(t, 168.0, v.AnnualPAT)
	assert.Equal(t, 1000.0, v.RevenueBased)
	assert.Equal(t, 1200.0, v.EBITDABased)
	assert.Equal(t, 1344.0, v.PATBased)
	assert.Equal(t, 1181.33, v.Average)
	assert.Equal(t, ValuationConfidence, v.Confidence)
	assert.NotEmpty(t, v.Assumptions)

	loss := Value(Waterfall(100, 90, LookupIndustry("retail")), 365, LookupIndustry("retail"))
	assert.Equal(t, 0.0, loss.EBITDABased)
	assert.Equal(t, 0.0, loss.PATBased)
}

func TestRankStaffRedistributesMissingWeights(t *testing.T) {
	staff := []models.StaffMember{
		{ID: "a", Name: "Awa", TotalSales: 1000, AttendanceRate: f(1), Rating: f(5)},
		{ID: "b", Name: "Bah", TotalSales: 500},
	}
	tasks := []models.Task{
		{AssignedTo: "a", Status: models.TaskCompleted},
		{AssignedTo: "a", Status: models.TaskPending},
	}
	sales := []models.Sale{
		{StaffID: "a", Total: 300, Date: now},
		{StaffID: "a", Total: 200, Date: time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC)},
	}

	rs := RankStaff(staff, tasks, sales, now)
	require.Len(t, rs, 2)

	assert.Equal(t, "a", rs[0].ID)
	assert.Equal(t, 1, rs[0].Rank)
	// sales 1, tasks .5, attendance 1, rating 1, growth .75
	// (0.3 + 0.125 + 0.2 + 0.15 + 0.075) = 0.85
	assert.Equal(t, 85.0, rs[0].Score)
	assert.Equal(t, "top", rs[0].Tier)
	assert.Empty(t, rs[0].Unavailable)

	// Only sales is measured for Bah, so it carries the full weight.
	assert.Equal(t, 50.0, rs[1].Score)
	assert.ElementsMatch(t, []string{"tasks", "attendance", "rating", "growth"}, rs[1].Unavailable)
	assert.Equal(t, map[string]float64{"sales": 0.5}, rs[1].Components)
}

func TestRankClients(t *testing.T) {
	recent := now.AddDate(0, 0, -73)
	customers := []models.Customer{
		{ID: "c1", Name: "Binta", TotalPurchases: 500, PurchaseCount: 10, LastPurchaseDate: &recent},
		{ID: "c2", Name: "Alpha", TotalPurchases: 250, PurchaseCount: 5},
	}

	rs := RankClients(customers, now)
	require.Len(t, rs, 2)
	assert.Equal(t, "c1", rs[0].ID)
	assert.Equal(t, 0.8, rs[0].Components["recency"])
	assert.Contains(t, rs[0].Unavailable, "rating")
	assert.Equal(t, 50.0, rs[1].Score)
}

func TestRankVendorsUsesScopedOrders(t *testing.T) {
	svc, st := newTestService(t, "retail")
	ctx := context.Background()

	delivered := now.AddDate(0, 0, -1)
	require.NoError(t, st.Vendors.Put(ctx, models.Vendor{ID: "v1", Name: "Sonoco", Rating: 5}))
	require.NoError(t, st.Vendors.Put(ctx, models.Vendor{ID: "v2", Name: "Agri", Rating: 2.5}))
	require.NoError(t, st.VendorOrders.Put(ctx, models.VendorOrder{
		ID: "o1", VendorID: "v1", BranchID: "b1", TotalAmount: 100,
		Status: models.VendorOrderDelivered, OrderDate: now.AddDate(0, 0, -3), DeliveredDate: &delivered,
	}))
	require.NoError(t, st.VendorOrders.Put(ctx, models.VendorOrder{
		ID: "o2", VendorID: "v2", BranchID: "b2", TotalAmount: 400, Status: models.VendorOrderCancelled,
	}))

	rs, err := svc.VendorRankings(ctx, access.ForBranch("b1"))
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "v1", rs[0].ID)
	assert.Equal(t, 100.0, rs[0].Score)
	assert.Equal(t, "v2", rs[1].ID)
	assert.ElementsMatch(t, []string{"on_time", "reliability"}, rs[1].Unavailable)
}
