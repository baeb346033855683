package services

import (
	"context"
	"slices"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
)

type OrderService struct {
	orders *repositories.OrderRepository
}

func NewOrderService(orders *repositories.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

func (s *OrderService) Mine(ctx context.Context, customerID uint, p orm.Page) ([]models.Order, orm.Pagination, error) {
	return s.orders.ForCustomer(ctx, customerID, p)
}

// Show returns an order to its owner or an admin. Anyone else gets the
// same 404 as for a missing order.
func (s *OrderService) Show(ctx context.Context, id auth.Identity, orderID uint) (models.Order, error) {
	o, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return o, notFound(err, "Order not found.")
	}
	if o.CustomerID != id.CustomerID && !id.IsAdmin() {
		return models.Order{}, apperr.NotFoundf("Order not found.")
	}
	return o, nil
}

func (s *OrderService) All(ctx context.Context, status string, p orm.Page) ([]models.Order, orm.Pagination, error) {
	if status != "" && !slices.Contains(models.OrderStatuses, status) {
		return nil, orm.Pagination{}, apperr.Invalid(map[string]string{"status": "The selected status is invalid."})
	}
	return s.orders.Paginate(ctx, status, p)
}

func (s *OrderService) SetStatus(ctx context.Context, orderID uint, status string) (models.Order, error) {
	if !slices.Contains(models.OrderStatuses, status) {
		return models.Order{}, apperr.Invalid(map[string]string{"status": "The selected status is invalid."})
	}
	if err := s.orders.SetStatus(ctx, orderID, status); err != nil {
		return models.Order{}, notFound(err, "Order not found.")
	}
	logger.WithCtx(ctx).Info("order status changed", "order_id", orderID, "status", status)
	o, err := s.orders.Find(ctx, orderID)
	return o, notFound(err, "Order not found.")
}
