package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/repository"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/notification"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
)

// Service manages the product catalogue and manual stock adjustments.
// Billing performs its own stock writes inside its transactions.
type Service struct {
	repo          repository.ProductRepository
	notifications *notification.Service
	logger        zerolog.Logger
}

func NewService(repo repository.ProductRepository, notifications *notification.Service, logger zerolog.Logger) *Service {
	return &Service{repo: repo, notifications: notifications, logger: logger}
}

func (s *Service) Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if req.Price.IsNegative() {
		return nil, errors.Validation("price cannot be negative")
	}
	if existing, err := s.repo.GetBySKU(ctx, req.SKU); err == nil && existing != nil {
		return nil, errors.Conflict("a product with this SKU already exists")
	}

	p := &model.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Active:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.Internal(err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("product", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateProductRequest) (*model.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("product", err)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, errors.Validation("price cannot be negative")
		}
		p.Price = *req.Price
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, errors.Internal(err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool, pg model.Pagination) ([]*model.Product, error) {
	return s.repo.List(ctx, activeOnly, pg)
}

func (s *Service) ListLowStock(ctx context.Context) ([]*model.Product, error) {
	return s.repo.ListLowStock(ctx)
}

// AdjustStock applies a manual stock correction: goods received, breakage,
// expiry. Sales never go through here.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, userID uuid.UUID, req *model.AdjustStockRequest) (*model.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.NotFound("product", err)
	}

	delta := req.Quantity
	if req.Direction == model.StockOutbound {
		if p.Stock < req.Quantity {
			return nil, errors.InsufficientStock(fmt.Sprintf(
				"%s has %d units, cannot remove %d", p.Name, p.Stock, req.Quantity))
		}
		delta = -req.Quantity
	}

	if err := s.repo.AdjustStock(ctx, id, delta); err != nil {
		return nil, errors.Internal(err)
	}
	movement := &model.InventoryMovement{
		ProductID:  id,
		Direction:  req.Direction,
		Quantity:   req.Quantity,
		Reason:     req.Reason,
		RecordedBy: userID,
	}
	if err := s.repo.CreateInventoryMovement(ctx, movement); err != nil {
		return nil, errors.Internal(err)
	}

	p.Stock += delta
	if p.LowStock() {
		s.warnLowStock(ctx, p)
	}
	return p, nil
}

func (s *Service) ListInventoryMovements(ctx context.Context, productID uuid.UUID) ([]*model.InventoryMovement, error) {
	return s.repo.ListInventoryMovements(ctx, productID)
}

func (s *Service) warnLowStock(ctx context.Context, p *model.Product) {
	if s.notifications == nil {
		return
	}
	err := s.notifications.NotifyRole(ctx, model.UserRoleAdmin, model.NotificationLowStock,
		"Stock bajo",
		fmt.Sprintf("%s tiene %d unidades (mínimo %d)", p.Name, p.Stock, p.MinStock),
		&p.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("product", p.Name).Msg("failed to send low stock alert")
	}
}
