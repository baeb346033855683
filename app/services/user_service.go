package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/orm"
)

type RoleInput struct {
	Role int `json:"role" validate:"required,in=1,2"`
}

// UserService is the admin view of customer accounts.
type UserService struct {
	customers *repositories.CustomerRepository
}

func NewUserService(customers *repositories.CustomerRepository) *UserService {
	return &UserService{customers: customers}
}

func (s *UserService) List(ctx context.Context, q string, p orm.Page) ([]models.Customer, orm.Pagination, error) {
	return s.customers.Paginate(ctx, q, p)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *UserService) SetRole(ctx context.Context, actor auth.Identity, userID uint, role int) (models.Customer, error) {
	if role != auth.RoleAdmin && role != auth.RoleCustomer {
		return models.Customer{}, apperr.Invalid(map[string]string{"role": "The selected role is invalid."})
	}
	if userID == actor.CustomerID && role != auth.RoleAdmin {
		return models.Customer{}, apperr.Invalidf("You cannot remove your own admin role.")
	}
	if err := s.customers.UpdateFields(ctx, userID, map[string]any{"role": role}); err != nil {
		return models.Customer{}, notFound(err, "User not found.")
	}
	logger.WithCtx(ctx).Info("user role changed", "user_id", userID, "role", role, "by", actor.CustomerID)
	c, err := s.customers.Find(ctx, userID)
	return c, notFound(err, "User not found.")
}

// Delete removes an account without orders. Admins cannot delete
// themselves.
func (s *UserService) Delete(ctx context.Context, actor auth.Identity, userID uint) error {
	if userID == actor.CustomerID {
		return apperr.Invalidf("You cannot delete your own account.")
	}
	if _, err := s.customers.Find(ctx, userID); err != nil {
		return notFound(err, "User not found.")
	}
	n, err := s.customers.CountOrders(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflictf("User has %d order(s) and cannot be deleted.", n)
	}
	if err := s.customers.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	logger.WithCtx(ctx).Info("user deleted", "user_id", userID, "by", actor.CustomerID)
	return nil
}
