package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
)

// CartOwner identifies whose cart is addressed: a customer, or a guest
// by IP address.
type CartOwner struct {
	CustomerID uint
	IP         string
}

func (o CartOwner) Key() string {
	if o.CustomerID != 0 {
		return models.CustomerOwner(o.CustomerID)
	}
	return models.GuestOwner(o.IP)
}

// CartView is the cart with derived totals.
type CartView struct {
	Items []models.CartItem `json:"items"`
	Total string            `json:"total"`
	Count int               `json:"count"`

	total decimal.Decimal
}

// Amount is the cart total as a decimal.
func (v CartView) Amount() decimal.Decimal { return v.total }

type CartService struct {
	carts    *repositories.CartRepository
	products *repositories.ProductRepository
}

func NewCartService(carts *repositories.CartRepository, products *repositories.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// Get returns the owner's cart. Lines whose product was deleted are
// dropped from the view.
func (s *CartService) Get(ctx context.Context, owner CartOwner) (CartView, error) {
	items, err := s.carts.Items(ctx, owner.Key())
	if err != nil {
		return CartView{}, fmt.Errorf("load cart: %w", err)
	}
	view := CartView{Items: make([]models.CartItem, 0, len(items))}
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		view.Items = append(view.Items, it)
		view.total = view.total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		view.Count += it.Quantity
	}
	view.Total = view.total.StringFixed(2)
	return view, nil
}

// Add puts qty of a product in the cart, on top of what is already there.
func (s *CartService) Add(ctx context.Context, owner CartOwner, productID uint, qty int) (CartView, error) {
	if qty < 1 {
		qty = 1
	}
	p, err := s.products.Find(ctx, productID)
	if err != nil {
		return CartView{}, notFound(err, "Product not found.")
	}
	line, found, err := s.carts.Find(ctx, owner.Key(), productID)
	if err != nil {
		return CartView{}, err
	}
	want := qty
	if found {
		want += line.Quantity
	}
	if !p.InStock(want) {
		return CartView{}, stockError(p)
	}
	if !found {
		line = newLine(owner, productID)
	}
	line.Quantity = want
	if err := s.carts.Save(ctx, &line); err != nil {
		return CartView{}, fmt.Errorf("save cart line: %w", err)
	}
	return s.Get(ctx, owner)
}

// Update sets the quantity of an existing line.
func (s *CartService) Update(ctx context.Context, owner CartOwner, productID uint, qty int) (CartView, error) {
	if qty < 1 {
		return CartView{}, apperr.Invalid(map[string]string{"quantity": "The quantity must be at least 1."})
	}
	line, found, err := s.carts.Find(ctx, owner.Key(), productID)
	if err != nil {
		return CartView{}, err
	}
	if !found {
		return CartView{}, apperr.NotFoundf("Item is not in your cart.")
	}
	p, err := s.products.Find(ctx, productID)
	if err != nil {
		return CartView{}, notFound(err, "Product not found.")
	}
	if !p.InStock(qty) {
		return CartView{}, stockError(p)
	}
	line.Quantity = qty
	if err := s.carts.Save(ctx, &line); err != nil {
		return CartView{}, fmt.Errorf("save cart line: %w", err)
	}
	return s.Get(ctx, owner)
}

func (s *CartService) Remove(ctx context.Context, owner CartOwner, productID uint) (CartView, error) {
	ok, err := s.carts.Remove(ctx, owner.Key(), productID)
	if err != nil {
		return CartView{}, err
	}
	if !ok {
		return CartView{}, apperr.NotFoundf("Item is not in your cart.")
	}
	return s.Get(ctx, owner)
}

func (s *CartService) Clear(ctx context.Context, owner CartOwner) error {
	return s.carts.Clear(ctx, owner.Key())
}

// Merge moves a guest cart into a customer's cart after login. Quantities
// add up, capped at stock; the guest lines are removed.
func (s *CartService) Merge(ctx context.Context, guestIP string, customerID uint) error {
	if guestIP == "" || customerID == 0 {
		return nil
	}
	guest := CartOwner{IP: guestIP}
	mine := CartOwner{CustomerID: customerID}
	items, err := s.carts.Items(ctx, guest.Key())
	if err != nil || len(items) == 0 {
		return err
	}
	log := logger.WithCtx(ctx)
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		line, found, err := s.carts.Find(ctx, mine.Key(), it.ProductID)
		if err != nil {
			return err
		}
		if !found {
			line = newLine(mine, it.ProductID)
		}
		line.Quantity += it.Quantity
		if line.Quantity > it.Product.Stock {
			line.Quantity = it.Product.Stock
		}
		if line.Quantity < 1 {
			continue
		}
		if err := s.carts.Save(ctx, &line); err != nil {
			log.Warn("cart merge: line skipped", "product_id", it.ProductID, "error", err)
		}
	}
	return s.carts.Clear(ctx, guest.Key())
}

func newLine(owner CartOwner, productID uint) models.CartItem {
	line := models.CartItem{Owner: owner.Key(), ProductID: productID}
	if owner.CustomerID != 0 {
		id := owner.CustomerID
		line.CustomerID = &id
	} else {
		line.IPAddress = owner.IP
	}
	return line
}

func stockError(p models.Product) error {
	if p.Stock <= 0 {
		return apperr.Invalidf("%s is out of stock.", p.Title)
	}
	return apperr.Invalidf("Only %d left in stock.", p.Stock)
}
