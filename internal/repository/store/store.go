// Package store defines the record store contracts shared by every backend.
//
// A store holds one collection per record kind. Collections are indexed by
// record id and persist each record individually; there is no whole
// collection rewrite on mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/hisaab/internal/domain/models"
)

// ErrNotFound is returned when a record or key does not exist.
var ErrNotFound = errors.New("record not found")

// Bucket names. They double as table, collection and key names in every
// backend.
const (
	BucketSales        = "hisaabb_sales"
	BucketInvoices     = "hisaabb_invoices"
	BucketProducts     = "hisaabb_products"
	BucketCustomers    = "hisaabb_customers"
	BucketStaff        = "hisaabb_staff"
	BucketTasks        = "hisaabb_tasks"
	BucketOrders       = "hisaabb_orders"
	BucketVendors      = "hisaabb_vendors"
	BucketVendorOrders = "hisaabb_vendor_orders"
	BucketBranches     = "insygth_branches"
	BucketDocuments    = "hisaabb_documents"
	BucketDailyReports = "hisaabb_daily_reports"
)

// Buckets lists every collection bucket.
var Buckets = []string{
	BucketSales, BucketInvoices, BucketProducts, BucketCustomers, BucketStaff, BucketTasks,
	BucketOrders, BucketVendors, BucketVendorOrders, BucketBranches, BucketDocuments, BucketDailyReports,
}

// Record is implemented by every stored model.
type Record interface {
	Key() string
}

// Collection is an id-indexed set of records of one kind.
type Collection[T Record] interface {
	// List returns all records in insertion order.
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	// Put inserts the record or replaces the one with the same id.
	Put(ctx context.Context, record T) error
	Delete(ctx context.Context, id string) error
}

// KV stores singleton JSON values such as cache entries and preferences.
type KV interface {
	GetJSON(ctx context.Context, key string, out any) error
	PutJSON(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Store bundles the collections of one backend.
type Store struct {
	Sales        Collection[models.Sale]
	Invoices     Collection[models.Invoice]
	Products     Collection[models.Product]
	Customers    Collection[models.Customer]
	Staff        Collection[models.StaffMember]
	Tasks        Collection[models.Task]
	Orders       Collection[models.Order]
	Vendors      Collection[models.Vendor]
	VendorOrders Collection[models.VendorOrder]
	Branches     Collection[models.Branch]
	Documents    Collection[models.Document]
	DailyReports Collection[models.DailyReport]
	KV           KV

	// Closer releases backend resources; may be nil.
	Closer func(ctx context.Context) error
}

// Close releases the backend.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.Closer == nil {
		return nil
	}
	return s.Closer(ctx)
}

// NewID builds a record id from a prefix, the current unix milliseconds and
// a random suffix.
func NewID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), suffix)
}

// Find returns the first record satisfying pred.
func Find[T any](items []T, pred func(T) bool) (T, bool) {
	for _, item := range items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
