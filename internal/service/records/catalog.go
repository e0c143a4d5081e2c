package records

import (
	"context"
	"strings"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

// AddProduct stores a new catalog entry with a generated id.
func (s *Service) AddProduct(ctx context.Context, p models.Product) (models.Product, error) {
	if err := s.checkBranch(ctx, p.BranchID); err != nil {
		return models.Product{}, err
	}
	now := s.now()
	p.Name = strings.TrimSpace(p.Name)
	p.ID = store.NewID("prod")
	p.CreatedAt, p.UpdatedAt = now, now
	if err := save(ctx, s, s.store.Products, store.BucketProducts, p, p.BranchID, events.OpCreate); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// UpdateProduct replaces the editable fields of a product.
func (s *Service) UpdateProduct(ctx context.Context, id string, p models.Product) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Products.Get(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if err := s.checkBranch(ctx, p.BranchID); err != nil {
		return models.Product{}, err
	}
	p.ID = existing.ID
	p.Name = strings.TrimSpace(p.Name)
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	if err := save(ctx, s, s.store.Products, store.BucketProducts, p, p.BranchID, events.OpUpdate); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(ctx, s, s.store.Products, store.BucketProducts, id)
}

// GetProduct loads one product.
func (s *Service) GetProduct(ctx context.Context, id string) (models.Product, error) {
	return s.store.Products.Get(ctx, id)
}

// ListProducts returns the catalog visible in scope.
func (s *Service) ListProducts(ctx context.Context, scope access.Scope) ([]models.Product, error) {
	return listScoped(ctx, s.store.Products, store.BucketProducts, scope)
}

// resolveProduct finds the catalog entry a line item refers to, first by id
// and then by case-insensitive name.
func resolveProduct(products []models.Product, item models.LineItem) (int, bool) {
	if item.ProductID != "" {
		for i, p := range products {
			if p.ID == item.ProductID {
				return i, true
			}
		}
		return -1, false
	}
	name := strings.TrimSpace(item.Name)
	for i, p := range products {
		if strings.EqualFold(p.Name, name) {
			return i, true
		}
	}
	return -1, false
}
