package models

import (
	"strings"
	"time"
)

// LineItem is a product line on a sale, invoice or order. ProductID may be
// empty for free-text lines; Name is then used to resolve the product.
type LineItem struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	Quantity  float64 `bson:"quantity" json:"quantity"`
	Price     float64 `bson:"price" json:"price"`
}

// Subtotal returns quantity times unit price.
func (l LineItem) Subtotal() float64 {
	return l.Quantity * l.Price
}

// Sale captures a point-of-sale transaction.
type Sale struct {
	ID            string     `bson:"_id" json:"id"`
	BranchID      string     `bson:"branch_id" json:"branch_id"`
	CustomerID    string     `bson:"customer_id" json:"customer_id"`
	CustomerName  string     `bson:"customer_name" json:"customer_name"`
	StaffID       string     `bson:"staff_id" json:"staff_id"`
	Products      []LineItem `bson:"products" json:"products"`
	Amount        float64    `bson:"amount" json:"amount"`
	Tax           float64    `bson:"tax" json:"tax"`
	Total         float64    `bson:"total" json:"total"`
	Status        SaleStatus `bson:"status" json:"status"`
	PaymentMethod string     `bson:"payment_method" json:"payment_method"`
	Date          time.Time  `bson:"date" json:"date"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
}

func (s Sale) Key() string    { return s.ID }
func (s Sale) Branch() string { return s.BranchID }

// Validate checks the sale before it is stored.
func (s Sale) Validate() error {
	errs := FieldErrors{}
	errs.Check(len(s.Products) > 0, "products", "at least one product is required")
	for _, item := range s.Products {
		if strings.TrimSpace(item.ProductID) == "" && strings.TrimSpace(item.Name) == "" {
			errs.Add("products", "every product needs an id or a name")
		}
		if item.Quantity <= 0 {
			errs.Add("products", "quantity must be positive")
		}
		if item.Price < 0 {
			errs.Add("products", "price must not be negative")
		}
	}
	errs.Check(s.Amount >= 0, "amount", "amount must not be negative")
	errs.Check(s.Tax >= 0, "tax", "tax must not be negative")
	errs.Check(s.Total >= 0, "total", "total must not be negative")
	errs.Check(s.Status == "" || s.Status.Valid(), "status", "unknown sale status")
	return errs.Err()
}

// Invoice is a billed amount tracked independently from sales.
type Invoice struct {
	ID           string        `bson:"_id" json:"id"`
	BranchID     string        `bson:"branch_id" json:"branch_id"`
	Number       string        `bson:"number" json:"number"`
	CustomerID   string        `bson:"customer_id" json:"customer_id"`
	CustomerName string        `bson:"customer_name" json:"customer_name"`
	Items        []LineItem    `bson:"items" json:"items"`
	Amount       float64       `bson:"amount" json:"amount"`
	Tax          float64       `bson:"tax" json:"tax"`
	Total        float64       `bson:"total" json:"total"`
	Status       InvoiceStatus `bson:"status" json:"status"`
	IssueDate    time.Time     `bson:"issue_date" json:"issue_date"`
	DueDate      time.Time     `bson:"due_date" json:"due_date"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
}

func (i Invoice) Key() string    { return i.ID }
func (i Invoice) Branch() string { return i.BranchID }

// Validate checks the invoice before it is stored.
func (i Invoice) Validate() error {
	errs := FieldErrors{}
	errs.Check(strings.TrimSpace(i.CustomerName) != "" || i.CustomerID != "", "customer_name", "customer is required")
	errs.Check(i.Amount >= 0, "amount", "amount must not be negative")
	errs.Check(i.Tax >= 0, "tax", "tax must not be negative")
	errs.Check(i.Total >= 0, "total", "total must not be negative")
	errs.Check(i.Status == "" || i.Status.Valid(), "status", "unknown invoice status")
	if !i.DueDate.IsZero() && !i.IssueDate.IsZero() {
		errs.Check(!i.DueDate.Before(i.IssueDate), "due_date", "due date cannot be before issue date")
	}
	return errs.Err()
}
