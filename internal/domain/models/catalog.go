package models

import (
	"strings"
	"time"
)

// Product is an item in the catalog with its stock position.
type Product struct {
	ID                string    `bson:"_id" json:"id"`
	BranchID          string    `bson:"branch_id" json:"branch_id"`
	Name              string    `bson:"name" json:"name"`
	SKU               string    `bson:"sku" json:"sku"`
	Category          string    `bson:"category" json:"category"`
	Unit              string    `bson:"unit" json:"unit"`
	Price             float64   `bson:"price" json:"price"`
	Cost              float64   `bson:"cost" json:"cost"`
	Stock             float64   `bson:"stock" json:"stock"`
	LowStockThreshold float64   `bson:"low_stock_threshold" json:"low_stock_threshold"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

func (p Product) Key() string    { return p.ID }
func (p Product) Branch() string { return p.BranchID }

// LowStock reports whether the stock has reached the reorder threshold.
func (p Product) LowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// Validate checks the product, including the price-versus-cost rule.
func (p Product) Validate() error {
	errs := FieldErrors{}
	errs.Check(strings.TrimSpace(p.Name) != "", "name", "name is required")
	errs.Check(p.Price >= 0, "price", "price must not be negative")
	errs.Check(p.Cost >= 0, "cost", "cost must not be negative")
	errs.Check(p.LowStockThreshold >= 0, "low_stock_threshold", "threshold must not be negative")
	if p.Price >= 0 && p.Cost >= 0 {
		errs.Check(p.Price >= p.Cost, "price", "selling price cannot be lower than buying price")
	}
	return errs.Err()
}
