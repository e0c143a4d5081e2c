package models

import "time"

// DailyReport is the end-of-day snapshot archived for owners.
type DailyReport struct {
	ID              string    `bson:"_id" json:"id"`
	Date            time.Time `bson:"date" json:"date"`
	BranchID        string    `bson:"branch_id" json:"branch_id"`
	SalesCount      int       `bson:"sales_count" json:"sales_count"`
	SalesRevenue    float64   `bson:"sales_revenue" json:"sales_revenue"`
	InvoiceRevenue  float64   `bson:"invoice_revenue" json:"invoice_revenue"`
	EstimatedProfit float64   `bson:"estimated_profit" json:"estimated_profit"`
	Expenses        float64   `bson:"expenses" json:"expenses"`
	PendingAmount   float64   `bson:"pending_amount" json:"pending_amount"`
	LowStockItems   int       `bson:"low_stock_items" json:"low_stock_items"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

func (r DailyReport) Key() string    { return r.ID }
func (r DailyReport) Branch() string { return r.BranchID }
