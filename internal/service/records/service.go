// Package records is the data manager: it validates, stores and mutates
// business records and keeps the denormalised counters on customers and
// staff in step with sales and tasks.
package records

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

// Service implements the record operations on top of a store.
type Service struct {
	store  *store.Store
	bus    *events.Bus
	logger *zap.Logger
	now    func() time.Time

	// mu serialises mutations that read-modify-write several records.
	mu sync.Mutex
}

// NewService wires a records service.
func NewService(st *store.Store, bus *events.Bus, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &Service{
		store:  st,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

type validator interface {
	Validate() error
}

// save validates rec when it knows how, writes it and announces the change.
func save[T store.Record](ctx context.Context, s *Service, c store.Collection[T], bucket string, rec T, branchID string, op events.Op) error {
	if v, ok := any(rec).(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if err := c.Put(ctx, rec); err != nil {
		return fmt.Errorf("save %s: %w", bucket, err)
	}
	s.publish(bucket, rec.Key(), branchID, op)
	return nil
}

// remove deletes the record and announces the change.
func remove[T interface {
	store.Record
	access.Branched
}](ctx context.Context, s *Service, c store.Collection[T], bucket, id string) error {
	existing, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", bucket, err)
	}
	s.publish(bucket, id, existing.Branch(), events.OpDelete)
	return nil
}

// listScoped loads a collection and narrows it to the scope.
func listScoped[T interface {
	store.Record
	access.Branched
}](ctx context.Context, c store.Collection[T], bucket string, scope access.Scope) ([]T, error) {
	items, err := c.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", bucket, err)
	}
	return access.FilterByBranch(items, scope), nil
}

func (s *Service) publish(bucket, id, branchID string, op events.Op) {
	s.bus.Records.Publish(events.RecordChanged{Bucket: bucket, ID: id, BranchID: branchID, Op: op})
}

// checkBranch reports an unknown branch id as a validation failure.
func (s *Service) checkBranch(ctx context.Context, branchID string) error {
	if branchID == "" {
		return nil
	}
	if _, err := s.store.Branches.Get(ctx, branchID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &models.ValidationError{Fields: map[string]string{"branch_id": "unknown branch"}}
		}
		return fmt.Errorf("load branch: %w", err)
	}
	return nil
}

// ReconcileReport tells how many records had drifted counters.
type ReconcileReport struct {
	CustomersAdjusted int `json:"customers_adjusted"`
	StaffAdjusted     int `json:"staff_adjusted"`
}

// Reconcile rebuilds the running counters on customers and staff from the
// sale and task history.
func (s *Service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report ReconcileReport

	sales, err := s.store.Sales.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list sales: %w", err)
	}
	customers, err := s.store.Customers.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list customers: %w", err)
	}
	staff, err := s.store.Staff.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list staff: %w", err)
	}
	tasks, err := s.store.Tasks.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list tasks: %w", err)
	}

	for _, c := range customers {
		var total float64
		var count int
		var last *time.Time
		for _, sale := range sales {
			if !countsTowardTotals(sale.Status) || !saleBelongsTo(sale, c) {
				continue
			}
			total += sale.Total
			count++
			if last == nil || sale.Date.After(*last) {
				d := sale.Date
				last = &d
			}
		}
		if nearlyEqual(c.TotalPurchases, total) && c.PurchaseCount == count && sameTime(c.LastPurchaseDate, last) {
			continue
		}
		s.logger.Info("customer counters drifted",
			zap.String("customer_id", c.ID),
			zap.Float64("stored_total", c.TotalPurchases),
			zap.Float64("actual_total", total))
		c.TotalPurchases, c.PurchaseCount, c.LastPurchaseDate = total, count, last
		if err := save(ctx, s, s.store.Customers, store.BucketCustomers, c, c.BranchID, events.OpUpdate); err != nil {
			return report, err
		}
		report.CustomersAdjusted++
	}

	for _, m := range staff {
		var total float64
		for _, sale := range sales {
			if countsTowardTotals(sale.Status) && sale.StaffID == m.ID {
				total += sale.Total
			}
		}
		completed := 0
		for _, t := range tasks {
			if t.AssignedTo == m.ID && t.Status == models.TaskCompleted {
				completed++
			}
		}
		commission := total * m.CommissionRate
		if nearlyEqual(m.TotalSales, total) && nearlyEqual(m.CommissionEarned, commission) && m.TasksCompleted == completed {
			continue
		}
		s.logger.Info("staff counters drifted",
			zap.String("staff_id", m.ID),
			zap.Float64("stored_sales", m.TotalSales),
			zap.Float64("actual_sales", total),
			zap.Int("stored_tasks", m.TasksCompleted),
			zap.Int("actual_tasks", completed))
		m.TotalSales, m.CommissionEarned, m.TasksCompleted = total, commission, completed
		if err := save(ctx, s, s.store.Staff, store.BucketStaff, m, m.BranchID, events.OpUpdate); err != nil {
			return report, err
		}
		report.StaffAdjusted++
	}

	return report, nil
}

func nearlyEqual(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
