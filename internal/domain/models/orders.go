package models

import (
	"strings"
	"time"
)

// Order is a customer order moving through fulfilment.
type Order struct {
	ID           string      `bson:"_id" json:"id"`
	BranchID     string      `bson:"branch_id" json:"branch_id"`
	CustomerName string      `bson:"customer_name" json:"customer_name"`
	Products     []LineItem  `bson:"products" json:"products"`
	Total        float64     `bson:"total" json:"total"`
	Status       OrderStatus `bson:"status" json:"status"`
	CreatedAt    time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `bson:"updated_at" json:"updated_at"`
}

func (o Order) Key() string    { return o.ID }
func (o Order) Branch() string { return o.BranchID }

// Validate checks the order before it is stored.
func (o Order) Validate() error {
	errs := FieldErrors{}
	errs.Check(strings.TrimSpace(o.CustomerName) != "", "customer_name", "customer is required")
	errs.Check(len(o.Products) > 0, "products", "at least one product is required")
	errs.Check(o.Total >= 0, "total", "total must not be negative")
	errs.Check(o.Status == "" || o.Status.Valid(), "status", "unknown order status")
	return errs.Err()
}

// Vendor is a supplier with performance figures recomputed from its orders.
type Vendor struct {
	ID       string         `bson:"_id" json:"id"`
	Name     string         `bson:"name" json:"name"`
	Category string         `bson:"category" json:"category"`
	Contact  string         `bson:"contact" json:"contact"`
	Email    string         `bson:"email" json:"email"`
	Status   ActivityStatus `bson:"status" json:"status"`
	// Rating is the operator-entered score on a 0-5 scale.
	Rating      float64           `bson:"rating" json:"rating"`
	Performance VendorPerformance `bson:"performance" json:"performance"`
	CreatedAt   time.Time         `bson:"created_at" json:"created_at"`
}

func (v Vendor) Key() string { return v.ID }

// Validate checks the vendor before it is stored.
func (v Vendor) Validate() error {
	errs := FieldErrors{}
	errs.Check(strings.TrimSpace(v.Name) != "", "name", "name is required")
	errs.Check(v.Rating >= 0 && v.Rating <= 5, "rating", "rating must be between 0 and 5")
	errs.Check(v.Status == "" || v.Status.Valid(), "status", "unknown status")
	return errs.Err()
}

// VendorPerformance summarises a vendor's purchase order history.
type VendorPerformance struct {
	TotalOrders      int     `bson:"total_orders" json:"total_orders"`
	TotalOrderValue  float64 `bson:"total_order_value" json:"total_order_value"`
	DeliveredOrders  int     `bson:"delivered_orders" json:"delivered_orders"`
	CancelledOrders  int     `bson:"cancelled_orders" json:"cancelled_orders"`
	OnTimeDeliveries int     `bson:"on_time_deliveries" json:"on_time_deliveries"`
	OnTimeRate       float64 `bson:"on_time_rate" json:"on_time_rate"`
	AvgLeadTimeDays  float64 `bson:"avg_lead_time_days" json:"avg_lead_time_days"`
}

// VendorOrder is a purchase order placed with a vendor.
type VendorOrder struct {
	ID            string            `bson:"_id" json:"id"`
	VendorID      string            `bson:"vendor_id" json:"vendor_id"`
	BranchID      string            `bson:"branch_id" json:"branch_id"`
	Items         []LineItem        `bson:"items" json:"items"`
	TotalAmount   float64           `bson:"total_amount" json:"total_amount"`
	Status        VendorOrderStatus `bson:"status" json:"status"`
	OrderDate     time.Time         `bson:"order_date" json:"order_date"`
	ExpectedDate  *time.Time        `bson:"expected_date,omitempty" json:"expected_date,omitempty"`
	DeliveredDate *time.Time        `bson:"delivered_date,omitempty" json:"delivered_date,omitempty"`
}

func (o VendorOrder) Key() string    { return o.ID }
func (o VendorOrder) Branch() string { return o.BranchID }

// Validate checks the purchase order before it is stored.
func (o VendorOrder) Validate() error {
	errs := FieldErrors{}
	errs.Check(o.VendorID != "", "vendor_id", "vendor is required")
	errs.Check(o.TotalAmount >= 0, "total_amount", "total must not be negative")
	errs.Check(o.Status == "" || o.Status.Valid(), "status", "unknown vendor order status")
	return errs.Err()
}
