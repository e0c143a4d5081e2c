// Package vendors manages suppliers and their purchase orders.
package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/domain/money"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

// Service exposes vendor and purchase order operations.
type Service struct {
	store  *store.Store
	bus    *events.Bus
	logger *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewService wires a vendor service.
func NewService(st *store.Store, bus *events.Bus, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &Service{store: st, bus: bus, logger: logger.Named("vendors"), now: time.Now}
}

func (s *Service) publish(bucket, id, branchID string, op events.Op) {
	s.bus.Records.Publish(events.RecordChanged{Bucket: bucket, ID: id, BranchID: branchID, Op: op})
}

// AddVendor stores a vendor with empty performance figures.
func (s *Service) AddVendor(ctx context.Context, v models.Vendor) (models.Vendor, error) {
	v.Name = strings.TrimSpace(v.Name)
	v.ID = store.NewID("vendor")
	if v.Status == "" {
		v.Status = models.StatusActive
	}
	v.Performance = models.VendorPerformance{}
	v.CreatedAt = s.now()
	if err := v.Validate(); err != nil {
		return models.Vendor{}, err
	}
	if err := s.store.Vendors.Put(ctx, v); err != nil {
		return models.Vendor{}, fmt.Errorf("save vendor: %w", err)
	}
	s.publish(store.BucketVendors, v.ID, "", events.OpCreate)
	return v, nil
}

// UpdateVendor replaces a vendor's profile and keeps its performance.
func (s *Service) UpdateVendor(ctx context.Context, id string, v models.Vendor) (models.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Vendors.Get(ctx, id)
	if err != nil {
		return models.Vendor{}, err
	}
	existing.Name = strings.TrimSpace(v.Name)
	existing.Category = v.Category
	existing.Contact = v.Contact
	existing.Email = v.Email
	existing.Rating = v.Rating
	if v.Status != "" {
		existing.Status = v.Status
	}
	if err := existing.Validate(); err != nil {
		return models.Vendor{}, err
	}
	if err := s.store.Vendors.Put(ctx, existing); err != nil {
		return models.Vendor{}, fmt.Errorf("save vendor: %w", err)
	}
	s.publish(store.BucketVendors, id, "", events.OpUpdate)
	return existing, nil
}

// DeleteVendor removes a vendor. Its purchase orders are kept for history.
func (s *Service) DeleteVendor(ctx context.Context, id string) error {
	if err := s.store.Vendors.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(store.BucketVendors, id, "", events.OpDelete)
	return nil
}

// GetVendor loads one vendor.
func (s *Service) GetVendor(ctx context.Context, id string) (models.Vendor, error) {
	return s.store.Vendors.Get(ctx, id)
}

// ListVendors returns every vendor. Vendors are shared across branches.
func (s *Service) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	vendors, err := s.store.Vendors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return vendors, nil
}

// AddVendorOrder places a purchase order with a known vendor.
func (s *Service) AddVendorOrder(ctx context.Context, o models.VendorOrder) (models.VendorOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.VendorID != "" {
		if _, err := s.store.Vendors.Get(ctx, o.VendorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return models.VendorOrder{}, &models.ValidationError{Fields: map[string]string{"vendor_id": "unknown vendor"}}
			}
			return models.VendorOrder{}, fmt.Errorf("load vendor: %w", err)
		}
	}
	o.ID = store.NewID("po")
	if o.Status == "" {
		o.Status = models.VendorOrderPending
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = s.now()
	}
	if o.TotalAmount == 0 {
		for _, item := range o.Items {
			o.TotalAmount += item.Subtotal()
		}
	}
	if o.Status == models.VendorOrderDelivered && o.DeliveredDate == nil {
		d := s.now()
		o.DeliveredDate = &d
	}
	if err := o.Validate(); err != nil {
		return models.VendorOrder{}, err
	}
	if err := s.store.VendorOrders.Put(ctx, o); err != nil {
		return models.VendorOrder{}, fmt.Errorf("save vendor order: %w", err)
	}
	s.publish(store.BucketVendorOrders, o.ID, o.BranchID, events.OpCreate)

	if err := s.refreshPerformance(ctx, o.VendorID); err != nil {
		return o, err
	}
	return o, nil
}

// UpdateVendorOrderStatus moves a purchase order to status and recomputes
// the vendor's performance. Delivery stamps the delivered date.
func (s *Service) UpdateVendorOrderStatus(ctx context.Context, id string, status models.VendorOrderStatus) (models.VendorOrder, error) {
	if !status.Valid() {
		return models.VendorOrder{}, &models.ValidationError{Fields: map[string]string{"status": "unknown vendor order status"}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.store.VendorOrders.Get(ctx, id)
	if err != nil {
		return models.VendorOrder{}, err
	}
	o.Status = status
	switch {
	case status == models.VendorOrderDelivered && o.DeliveredDate == nil:
		d := s.now()
		o.DeliveredDate = &d
	case status != models.VendorOrderDelivered:
		o.DeliveredDate = nil
	}
	if err := s.store.VendorOrders.Put(ctx, o); err != nil {
		return models.VendorOrder{}, fmt.Errorf("save vendor order: %w", err)
	}
	s.publish(store.BucketVendorOrders, o.ID, o.BranchID, events.OpUpdate)

	if err := s.refreshPerformance(ctx, o.VendorID); err != nil {
		return o, err
	}
	return o, nil
}

// ListVendorOrders returns the purchase orders visible in scope, optionally
// for one vendor.
func (s *Service) ListVendorOrders(ctx context.Context, scope access.Scope, vendorID string) ([]models.VendorOrder, error) {
	orders, err := s.store.VendorOrders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendor orders: %w", err)
	}
	orders = access.FilterByBranch(orders, scope)
	if vendorID == "" {
		return orders, nil
	}
	out := make([]models.VendorOrder, 0, len(orders))
	for _, o := range orders {
		if o.VendorID == vendorID {
			out = append(out, o)
		}
	}
	return out, nil
}

// DeleteVendorOrder removes a purchase order and recomputes the vendor's
// performance without it.
func (s *Service) DeleteVendorOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.store.VendorOrders.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.VendorOrders.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete vendor order: %w", err)
	}
	s.publish(store.BucketVendorOrders, id, o.BranchID, events.OpDelete)
	return s.refreshPerformance(ctx, o.VendorID)
}

// GetVendorOrder loads one purchase order.
func (s *Service) GetVendorOrder(ctx context.Context, id string) (models.VendorOrder, error) {
	return s.store.VendorOrders.Get(ctx, id)
}

func (s *Service) refreshPerformance(ctx context.Context, vendorID string) error {
	v, err := s.store.Vendors.Get(ctx, vendorID)
	if err != nil {
		s.logger.Warn("performance refresh skipped", zap.String("vendor_id", vendorID), zap.Error(err))
		return nil
	}
	orders, err := s.store.VendorOrders.List(ctx)
	if err != nil {
		return fmt.Errorf("list vendor orders: %w", err)
	}
	v.Performance = ComputePerformance(vendorID, orders)
	if err := s.store.Vendors.Put(ctx, v); err != nil {
		return fmt.Errorf("save vendor: %w", err)
	}
	s.publish(store.BucketVendors, v.ID, "", events.OpUpdate)
	return nil
}

// ComputePerformance summarises the purchase orders placed with vendorID.
// Cancelled orders count toward TotalOrders but not toward the order value.
// A delivery is on time when it lands on or before the expected date, or
// when no expected date was set.
func ComputePerformance(vendorID string, orders []models.VendorOrder) models.VendorPerformance {
	var perf models.VendorPerformance
	var leadDays float64
	var leadCount int
	for _, o := range orders {
		if o.VendorID != vendorID {
			continue
		}
		perf.TotalOrders++
		if o.Status == models.VendorOrderCancelled {
			perf.CancelledOrders++
			continue
		}
		perf.TotalOrderValue += o.TotalAmount
		if o.Status != models.VendorOrderDelivered || o.DeliveredDate == nil {
			continue
		}
		perf.DeliveredOrders++
		if o.ExpectedDate == nil || !o.DeliveredDate.After(*o.ExpectedDate) {
			perf.OnTimeDeliveries++
		}
		leadDays += o.DeliveredDate.Sub(o.OrderDate).Hours() / 24
		leadCount++
	}
	if perf.DeliveredOrders > 0 {
		perf.OnTimeRate = money.Percent(float64(perf.OnTimeDeliveries), float64(perf.DeliveredOrders))
	}
	if leadCount > 0 {
		perf.AvgLeadTimeDays = money.Round2(leadDays / float64(leadCount))
	}
	return perf
}
