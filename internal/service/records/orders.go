package records

import (
	"context"
	"strings"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

// AddOrder stores a customer order.
func (s *Service) AddOrder(ctx context.Context, o models.Order) (models.Order, error) {
	if err := s.checkBranch(ctx, o.BranchID); err != nil {
		return models.Order{}, err
	}
	now := s.now()
	o.CustomerName = strings.TrimSpace(o.CustomerName)
	o.ID = store.NewID("order")
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	if o.Total == 0 {
		o.Total = lineTotal(o.Products)
	}
	o.CreatedAt, o.UpdatedAt = now, now
	if err := save(ctx, s, s.store.Orders, store.BucketOrders, o, o.BranchID, events.OpCreate); err != nil {
		return models.Order{}, err
	}
	return o, nil
}

// UpdateOrderStatus moves an order to status. Any known status may follow
// any other.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, invalid("status", "unknown order status")
	}
	o, err := s.store.Orders.Get(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	o.Status = status
	o.UpdatedAt = s.now()
	if err := save(ctx, s, s.store.Orders, store.BucketOrders, o, o.BranchID, events.OpUpdate); err != nil {
		return models.Order{}, err
	}
	return o, nil
}

// DeleteOrder removes an order.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return remove(ctx, s, s.store.Orders, store.BucketOrders, id)
}

// GetOrder loads one order.
func (s *Service) GetOrder(ctx context.Context, id string) (models.Order, error) {
	return s.store.Orders.Get(ctx, id)
}

// ListOrders returns the orders visible in scope.
func (s *Service) ListOrders(ctx context.Context, scope access.Scope) ([]models.Order, error) {
	return listScoped(ctx, s.store.Orders, store.BucketOrders, scope)
}
