package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/database"
)

type WishlistService struct {
	items    *repositories.WishlistRepository
	products *repositories.ProductRepository
}

func NewWishlistService(items *repositories.WishlistRepository, products *repositories.ProductRepository) *WishlistService {
	return &WishlistService{items: items, products: products}
}

func (s *WishlistService) List(ctx context.Context, customerID uint) ([]models.WishlistItem, error) {
	return s.items.List(ctx, customerID)
}

// Add saves a product; adding it twice is not an error.
func (s *WishlistService) Add(ctx context.Context, customerID, productID uint) ([]models.WishlistItem, error) {
	if _, err := s.products.Find(ctx, productID); err != nil {
		return nil, notFound(err, "Product not found.")
	}
	if err := s.items.Add(ctx, customerID, productID); err != nil && !database.IsDuplicate(err) {
		return nil, fmt.Errorf("add wishlist item: %w", err)
	}
	return s.items.List(ctx, customerID)
}

func (s *WishlistService) Remove(ctx context.Context, customerID, productID uint) error {
	ok, err := s.items.Remove(ctx, customerID, productID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("Product is not in your wishlist.")
	}
	return nil
}
