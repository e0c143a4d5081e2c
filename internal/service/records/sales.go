package records

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

func invalid(field, msg string) error {
	return &models.ValidationError{Fields: map[string]string{field: msg}}
}

// countsTowardTotals reports whether a sale in this state contributes to
// stock movements and running totals.
func countsTowardTotals(status models.SaleStatus) bool {
	return status != models.SaleCancelled && status != models.SaleRefunded
}

func saleBelongsTo(sale models.Sale, c models.Customer) bool {
	if sale.CustomerID != "" {
		return sale.CustomerID == c.ID
	}
	return sale.CustomerName != "" && strings.EqualFold(strings.TrimSpace(sale.CustomerName), c.Name)
}

func lineTotal(items []models.LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Subtotal()
	}
	return sum
}

// AddSale records a sale. Stock is taken from the referenced products and
// the customer and staff running totals are bumped. A customer named on the
// sale but missing from the CRM is created on the fly.
func (s *Service) AddSale(ctx context.Context, sale models.Sale) (models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sale.CustomerName = strings.TrimSpace(sale.CustomerName)
	if sale.Status == "" {
		sale.Status = models.SaleCompleted
	}
	if sale.Date.IsZero() {
		sale.Date = now
	}
	if sale.Amount == 0 {
		sale.Amount = lineTotal(sale.Products)
	}
	if sale.Total == 0 {
		sale.Total = sale.Amount + sale.Tax
	}
	if err := sale.Validate(); err != nil {
		return models.Sale{}, err
	}
	if err := s.checkBranch(ctx, sale.BranchID); err != nil {
		return models.Sale{}, err
	}

	products, err := s.store.Products.List(ctx)
	if err != nil {
		return models.Sale{}, fmt.Errorf("list products: %w", err)
	}
	sale.Products = slices.Clone(sale.Products)
	for i, item := range sale.Products {
		idx, ok := resolveProduct(products, item)
		if !ok {
			if item.ProductID != "" {
				return models.Sale{}, invalid("products", "unknown product "+item.ProductID)
			}
			continue
		}
		sale.Products[i].ProductID = products[idx].ID
		if sale.Products[i].Name == "" {
			sale.Products[i].Name = products[idx].Name
		}
	}

	if err := s.resolveCustomer(ctx, &sale); err != nil {
		return models.Sale{}, err
	}
	if sale.StaffID != "" {
		if _, err := s.store.Staff.Get(ctx, sale.StaffID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return models.Sale{}, invalid("staff_id", "unknown staff member")
			}
			return models.Sale{}, fmt.Errorf("load staff: %w", err)
		}
	}

	sale.ID = store.NewID("sale")
	sale.CreatedAt = now
	if err := save(ctx, s, s.store.Sales, store.BucketSales, sale, sale.BranchID, events.OpCreate); err != nil {
		return models.Sale{}, err
	}

	if countsTowardTotals(sale.Status) {
		if err := s.applySaleEffects(ctx, sale, 1); err != nil {
			return sale, err
		}
	}

	s.logger.Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("branch_id", sale.BranchID),
		zap.Float64("total", sale.Total))
	return sale, nil
}

// resolveCustomer links the sale to a CRM customer by id, then by name,
// creating the customer when only an unknown name was given.
func (s *Service) resolveCustomer(ctx context.Context, sale *models.Sale) error {
	if sale.CustomerID != "" {
		c, err := s.store.Customers.Get(ctx, sale.CustomerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return invalid("customer_id", "unknown customer")
			}
			return fmt.Errorf("load customer: %w", err)
		}
		if sale.CustomerName == "" {
			sale.CustomerName = c.Name
		}
		return nil
	}
	if sale.CustomerName == "" {
		return nil
	}

	customers, err := s.store.Customers.List(ctx)
	if err != nil {
		return fmt.Errorf("list customers: %w", err)
	}
	if c, ok := store.Find(customers, func(c models.Customer) bool {
		return strings.EqualFold(c.Name, sale.CustomerName)
	}); ok {
		sale.CustomerID = c.ID
		return nil
	}

	c := models.Customer{
		ID:        store.NewID("cust"),
		BranchID:  sale.BranchID,
		Name:      sale.CustomerName,
		CreatedAt: s.now(),
	}
	if err := save(ctx, s, s.store.Customers, store.BucketCustomers, c, c.BranchID, events.OpCreate); err != nil {
		return err
	}
	s.logger.Info("customer created from sale", zap.String("customer_id", c.ID), zap.String("name", c.Name))
	sale.CustomerID = c.ID
	return nil
}

// applySaleEffects moves stock and running totals by sign (1 to apply a
// sale, -1 to reverse it).
func (s *Service) applySaleEffects(ctx context.Context, sale models.Sale, sign float64) error {
	products, err := s.store.Products.List(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	touched := map[int]bool{}
	for _, item := range sale.Products {
		if item.ProductID == "" {
			continue
		}
		idx, ok := resolveProduct(products, item)
		if !ok {
			s.logger.Warn("sale references missing product",
				zap.String("sale_id", sale.ID), zap.String("product_id", item.ProductID))
			continue
		}
		products[idx].Stock -= sign * item.Quantity
		touched[idx] = true
	}
	now := s.now()
	for idx := range touched {
		p := products[idx]
		p.UpdatedAt = now
		if err := wrapPut(s.store.Products.Put(ctx, p), store.BucketProducts); err != nil {
			return err
		}
		s.publish(store.BucketProducts, p.ID, p.BranchID, events.OpUpdate)
	}

	if sale.CustomerID != "" {
		cust, err := s.store.Customers.Get(ctx, sale.CustomerID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.logger.Warn("sale references missing customer", zap.String("customer_id", sale.CustomerID))
		case err != nil:
			return fmt.Errorf("load customer: %w", err)
		default:
			cust.TotalPurchases += sign * sale.Total
			cust.PurchaseCount += int(sign)
			if sign > 0 && (cust.LastPurchaseDate == nil || sale.Date.After(*cust.LastPurchaseDate)) {
				d := sale.Date
				cust.LastPurchaseDate = &d
			}
			if err := wrapPut(s.store.Customers.Put(ctx, cust), store.BucketCustomers); err != nil {
				return err
			}
			s.publish(store.BucketCustomers, cust.ID, cust.BranchID, events.OpUpdate)
		}
	}

	if sale.StaffID != "" {
		member, err := s.store.Staff.Get(ctx, sale.StaffID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.logger.Warn("sale references missing staff member", zap.String("staff_id", sale.StaffID))
		case err != nil:
			return fmt.Errorf("load staff: %w", err)
		default:
			member.TotalSales += sign * sale.Total
			member.CommissionEarned += sign * sale.Total * member.CommissionRate
			if err := wrapPut(s.store.Staff.Put(ctx, member), store.BucketStaff); err != nil {
				return err
			}
			s.publish(store.BucketStaff, member.ID, member.BranchID, events.OpUpdate)
		}
	}
	return nil
}

// wrapPut wraps a store write error with the bucket it was aimed at.
func wrapPut(err error, bucket string) error {
	if err != nil {
		return fmt.Errorf("save %s: %w", bucket, err)
	}
	return nil
}

// UpdateSaleStatus changes a sale's status. Moving a sale in or out of the
// cancelled and refunded states applies or reverses its stock and totals.
func (s *Service) UpdateSaleStatus(ctx context.Context, id string, status models.SaleStatus) (models.Sale, error) {
	if !status.Valid() {
		return models.Sale{}, invalid("status", "unknown sale status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sale, err := s.store.Sales.Get(ctx, id)
	if err != nil {
		return models.Sale{}, err
	}
	before, after := countsTowardTotals(sale.Status), countsTowardTotals(status)
	sale.Status = status
	if err := save(ctx, s, s.store.Sales, store.BucketSales, sale, sale.BranchID, events.OpUpdate); err != nil {
		return models.Sale{}, err
	}
	switch {
	case before && !after:
		err = s.applySaleEffects(ctx, sale, -1)
	case !before && after:
		err = s.applySaleEffects(ctx, sale, 1)
	}
	return sale, err
}

// DeleteSale removes a sale and reverses its effects.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, err := s.store.Sales.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := remove(ctx, s, s.store.Sales, store.BucketSales, id); err != nil {
		return err
	}
	if countsTowardTotals(sale.Status) {
		return s.applySaleEffects(ctx, sale, -1)
	}
	return nil
}

// GetSale loads one sale.
func (s *Service) GetSale(ctx context.Context, id string) (models.Sale, error) {
	return s.store.Sales.Get(ctx, id)
}

// ListSales returns the sales visible in scope.
func (s *Service) ListSales(ctx context.Context, scope access.Scope) ([]models.Sale, error) {
	return listScoped(ctx, s.store.Sales, store.BucketSales, scope)
}

// AddInvoice stores an invoice, numbering it when no number was given.
func (s *Service) AddInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	inv.CustomerName = strings.TrimSpace(inv.CustomerName)
	if inv.Status == "" {
		inv.Status = models.InvoicePending
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = now
	}
	if inv.Amount == 0 {
		inv.Amount = lineTotal(inv.Items)
	}
	if inv.Total == 0 {
		inv.Total = inv.Amount + inv.Tax
	}
	if inv.CustomerID != "" && inv.CustomerName == "" {
		cust, err := s.store.Customers.Get(ctx, inv.CustomerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return models.Invoice{}, invalid("customer_id", "unknown customer")
			}
			return models.Invoice{}, fmt.Errorf("load customer: %w", err)
		}
		inv.CustomerName = cust.Name
	}
	if err := s.checkBranch(ctx, inv.BranchID); err != nil {
		return models.Invoice{}, err
	}

	if inv.Number == "" {
		existing, err := s.store.Invoices.List(ctx)
		if err != nil {
			return models.Invoice{}, fmt.Errorf("list invoices: %w", err)
		}
		inv.Number = nextInvoiceNumber(existing)
	}

	inv.ID = store.NewID("inv")
	inv.CreatedAt = now
	if err := save(ctx, s, s.store.Invoices, store.BucketInvoices, inv, inv.BranchID, events.OpCreate); err != nil {
		return models.Invoice{}, err
	}
	return inv, nil
}

func nextInvoiceNumber(existing []models.Invoice) string {
	taken := make(map[string]bool, len(existing))
	for _, inv := range existing {
		taken[inv.Number] = true
	}
	for n := len(existing) + 1; ; n++ {
		number := fmt.Sprintf("INV-%05d", n)
		if !taken[number] {
			return number
		}
	}
}

// UpdateInvoiceStatus changes an invoice's status.
func (s *Service) UpdateInvoiceStatus(ctx context.Context, id string, status models.InvoiceStatus) (models.Invoice, error) {
	if !status.Valid() {
		return models.Invoice{}, invalid("status", "unknown invoice status")
	}
	inv, err := s.store.Invoices.Get(ctx, id)
	if err != nil {
		return models.Invoice{}, err
	}
	inv.Status = status
	if err := save(ctx, s, s.store.Invoices, store.BucketInvoices, inv, inv.BranchID, events.OpUpdate); err != nil {
		return models.Invoice{}, err
	}
	return inv, nil
}

// DeleteInvoice removes an invoice.
func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	return remove(ctx, s, s.store.Invoices, store.BucketInvoices, id)
}

// GetInvoice loads one invoice.
func (s *Service) GetInvoice(ctx context.Context, id string) (models.Invoice, error) {
	return s.store.Invoices.Get(ctx, id)
}

// ListInvoices returns the invoices visible in scope.
func (s *Service) ListInvoices(ctx context.Context, scope access.Scope) ([]models.Invoice, error) {
	return listScoped(ctx, s.store.Invoices, store.BucketInvoices, scope)
}
