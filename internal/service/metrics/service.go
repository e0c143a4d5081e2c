// Package metrics computes the dashboard business metrics snapshot and
// caches it in the KV store.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/domain/money"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
	"github.com/mamadbah2/hisaab/internal/telemetry"
)

// CacheKeyPrefix prefixes every cached snapshot key.
const CacheKeyPrefix = "hisaabb_business_metrics"

// DefaultTTL is how long a cached snapshot stays fresh.
const DefaultTTL = 5 * time.Minute

// Option customises a Service.
type Option func(*Service)

// WithTTL overrides the cache freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLocation sets the timezone used for day and month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithTelemetry reports cache and recalculation figures to m.
func WithTelemetry(m *telemetry.Metrics) Option {
	return func(s *Service) { s.telemetry = m }
}

// Service is the metrics aggregator.
type Service struct {
	store     *store.Store
	logger    *zap.Logger
	telemetry *telemetry.Metrics
	ttl       time.Duration
	loc       *time.Location
	now       func() time.Time

	// generation counts invalidations; a scan that overlaps one is not cached.
	mu         sync.Mutex
	generation uint64
}

// NewService wires a metrics aggregator.
func NewService(st *store.Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  st,
		logger: logger.Named("metrics"),
		ttl:    DefaultTTL,
		loc:    time.UTC,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheKey returns the KV key of the snapshot for scope.
func CacheKey(scope access.Scope) string {
	if scope.All() {
		return CacheKeyPrefix
	}
	return CacheKeyPrefix + ":" + scope.BranchID
}

// Watch drops cached snapshots whenever a record changes. A change in one
// branch also stales the all-branches snapshot, so every entry goes.
func (s *Service) Watch(bus *events.Bus) (unsubscribe func()) {
	return bus.Records.Subscribe(func(evt events.RecordChanged) {
		if err := s.Invalidate(context.Background()); err != nil {
			s.logger.Warn("metrics cache invalidation failed", zap.String("bucket", evt.Bucket), zap.Error(err))
		}
	})
}

// Invalidate removes every cached snapshot.
func (s *Service) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.store.KV.DeletePrefix(ctx, CacheKeyPrefix)
}

// GetBusinessMetrics returns the cached snapshot for scope when it is
// younger than the TTL and recalculates it otherwise.
func (s *Service) GetBusinessMetrics(ctx context.Context, scope access.Scope) (models.BusinessMetrics, error) {
	var cached models.CachedMetrics
	err := s.store.KV.GetJSON(ctx, CacheKey(scope), &cached)
	switch {
	case err == nil && s.now().Sub(cached.ComputedAt) < s.ttl:
		s.telemetry.CacheLookup("hit")
		return cached.Metrics, nil
	case err == nil:
		s.telemetry.CacheLookup("stale")
	case errors.Is(err, store.ErrNotFound):
		s.telemetry.CacheLookup("miss")
	default:
		s.telemetry.CacheLookup("miss")
		s.logger.Warn("metrics cache unreadable", zap.Error(err))
	}
	return s.Recalculate(ctx, scope)
}

// Recalculate scans the record stores, computes a fresh snapshot and
// writes it back as the cache entry. The entry is not written when a record
// changed while the stores were being read.
func (s *Service) Recalculate(ctx context.Context, scope access.Scope) (models.BusinessMetrics, error) {
	started := time.Now()
	now := s.now()

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	snap := s.load(ctx, scope)
	m := Compute(snap, now.In(s.loc))
	m.BranchID = scope.BranchID
	m.LastUpdated = now

	if err := s.storeEntry(ctx, scope, gen, models.CachedMetrics{Metrics: m, ComputedAt: now}); err != nil {
		return m, err
	}
	s.telemetry.ObserveRecalculation(time.Since(started))
	s.logger.Debug("business metrics recalculated",
		zap.String("scope", scope.CacheKey()),
		zap.Float64("total_revenue", m.TotalRevenue),
		zap.Int("total_sales", m.TotalSales))
	return m, nil
}

func (s *Service) storeEntry(ctx context.Context, scope access.Scope, gen uint64, entry models.CachedMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.logger.Debug("records changed during recalculation, snapshot not cached", zap.String("scope", scope.CacheKey()))
		return nil
	}
	if err := s.store.KV.PutJSON(ctx, CacheKey(scope), entry); err != nil {
		return fmt.Errorf("store metrics cache: %w", err)
	}
	return nil
}

// Snapshot is the set of records an aggregation reads.
type Snapshot struct {
	Sales     []models.Sale
	Invoices  []models.Invoice
	Products  []models.Product
	Customers []models.Customer
	Staff     []models.StaffMember
	Tasks     []models.Task
	Orders    []models.Order
}

// load reads every collection for scope. A collection that cannot be read
// is logged and treated as empty.
func (s *Service) load(ctx context.Context, scope access.Scope) Snapshot {
	return Snapshot{
		Sales:     loadScoped(ctx, s.logger, s.store.Sales, store.BucketSales, scope),
		Invoices:  loadScoped(ctx, s.logger, s.store.Invoices, store.BucketInvoices, scope),
		Products:  loadScoped(ctx, s.logger, s.store.Products, store.BucketProducts, scope),
		Customers: loadScoped(ctx, s.logger, s.store.Customers, store.BucketCustomers, scope),
		Staff:     loadScoped(ctx, s.logger, s.store.Staff, store.BucketStaff, scope),
		Tasks:     loadScoped(ctx, s.logger, s.store.Tasks, store.BucketTasks, scope),
		Orders:    loadScoped(ctx, s.logger, s.store.Orders, store.BucketOrders, scope),
	}
}

func loadScoped[T interface {
	store.Record
	access.Branched
}](ctx context.Context, logger *zap.Logger, c store.Collection[T], bucket string, scope access.Scope) []T {
	items, err := c.List(ctx)
	if err != nil {
		logger.Error("record store unreadable, using empty collection", zap.String("bucket", bucket), zap.Error(err))
		return nil
	}
	return access.FilterByBranch(items, scope)
}

// Compute derives the metrics from snap. now must already be in the
// business timezone; calendar days and months are taken from it.
func Compute(snap Snapshot, now time.Time) models.BusinessMetrics {
	var m models.BusinessMetrics

	loc := now.Location()
	today := dayStart(now)
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	lastMonth := thisMonth.AddDate(0, -1, 0)
	nextMonth := thisMonth.AddDate(0, 1, 0)

	var revenue, net, pending, todaySum, thisMonthSum, lastMonthSum money.Sum
	for _, sale := range snap.Sales {
		if !revenue.Add(sale.Total) {
			continue
		}
		m.TotalSales++
		switch sale.Status {
		case models.SaleCancelled, models.SaleRefunded:
		case models.SalePending:
			net.Add(sale.Total)
			pending.Add(sale.Total)
		default:
			net.Add(sale.Total)
		}
		d := sale.Date.In(loc)
		if dayStart(d).Equal(today) {
			todaySum.Add(sale.Total)
		}
		switch {
		case !d.Before(thisMonth) && d.Before(nextMonth):
			thisMonthSum.Add(sale.Total)
		case !d.Before(lastMonth) && d.Before(thisMonth):
			lastMonthSum.Add(sale.Total)
		}
	}
	for _, inv := range snap.Invoices {
		if !revenue.Add(inv.Total) {
			continue
		}
		switch {
		case inv.Status == models.InvoicePaid:
			net.Add(inv.Total)
		case inv.Status.Outstanding():
			pending.Add(inv.Total)
		}
	}

	m.TotalRevenue = revenue.Float()
	m.NetRevenue = net.Float()
	m.PendingAmount = pending.Float()
	m.TodaySales = todaySum.Float()
	m.ThisMonthSales = thisMonthSum.Float()
	m.LastMonthSales = lastMonthSum.Float()
	m.MonthlyGrowth = Growth(m.ThisMonthSales, m.LastMonthSales)

	for _, o := range snap.Orders {
		switch {
		case o.Status.Active():
			m.ActiveOrders++
		case o.Status == models.OrderDelivered:
			m.CompletedOrders++
		}
	}

	for _, member := range snap.Staff {
		if member.Status != models.StatusInactive {
			m.TeamSize++
		}
	}
	for _, t := range snap.Tasks {
		if t.Status.Active() {
			m.ActiveTasks++
		}
	}

	var inventory money.Sum
	for _, p := range snap.Products {
		inventory.AddProduct(p.Stock, p.Cost)
		if p.LowStock() {
			m.LowStockItems++
		}
	}
	m.InventoryValue = inventory.Float()

	m.CustomerCount = len(snap.Customers)
	m.ProductCount = len(snap.Products)
	return m
}

// Growth returns the percentage change from previous to current, or 0 when
// previous is zero.
func Growth(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return money.Round2((current - previous) / previous * 100)
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
