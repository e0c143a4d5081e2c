package models

import "time"

// BusinessMetrics is the dashboard snapshot produced by the metrics aggregator.
// TotalRevenue sums every sale and invoice; NetRevenue leaves out cancelled
// and refunded sales and invoices that are not paid.
type BusinessMetrics struct {
	BranchID        string    `json:"branch_id,omitempty"`
	TotalRevenue    float64   `json:"total_revenue"`
	TotalSales      int       `json:"total_sales"`
	NetRevenue      float64   `json:"net_revenue"`
	PendingAmount   float64   `json:"pending_amount"`
	ActiveOrders    int       `json:"active_orders"`
	CompletedOrders int       `json:"completed_orders"`
	TeamSize        int       `json:"team_size"`
	ActiveTasks     int       `json:"active_tasks"`
	InventoryValue  float64   `json:"inventory_value"`
	LowStockItems   int       `json:"low_stock_items"`
	TodaySales      float64   `json:"today_sales"`
	ThisMonthSales  float64   `json:"this_month_sales"`
	LastMonthSales  float64   `json:"last_month_sales"`
	MonthlyGrowth   float64   `json:"monthly_growth"`
	CustomerCount   int       `json:"customer_count"`
	ProductCount    int       `json:"product_count"`
	LastUpdated     time.Time `json:"last_updated"`
}

// CachedMetrics is the persisted cache entry for a BusinessMetrics snapshot.
type CachedMetrics struct {
	Metrics    BusinessMetrics `json:"metrics"`
	ComputedAt time.Time       `json:"computed_at"`
}
