package controllers

import (
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/pkg/ctx"
)

// ShopController serves the public catalog.
type ShopController struct {
	catalog *services.CatalogService
}

func NewShopController(s *services.CatalogService) *ShopController {
	return &ShopController{catalog: s}
}

func (sc *ShopController) Index(c *ctx.Context) {
	shop, err := sc.catalog.Shop(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(shop)
}

func (sc *ShopController) Products(c *ctx.Context) {
	f, ok := productFilter(c)
	if !ok {
		return
	}
	items, page, err := sc.catalog.Products(c.Context(), f, c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(items, page)
}

func productFilter(c *ctx.Context) (repositories.ProductFilter, bool) {
	f := repositories.ProductFilter{
		Query:      c.Query("q"),
		CategoryID: c.QueryUint("category_id"),
		VendorID:   c.QueryUint("vendor_id"),
		Sort:       c.Query("sort"),
	}
	errs := map[string]string{}
	for key, dst := range map[string]**float64{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			errs[key] = "The " + key + " must be a non-negative number."
			continue
		}
		*dst = &v
	}
	if len(errs) > 0 {
		c.ValidationError(errs)
		return f, false
	}
	return f, true
}

func (sc *ShopController) Product(c *ctx.Context) {
	id, ok := paramID(c, "id", "Product")
	if !ok {
		return
	}
	detail, err := sc.catalog.Product(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(detail)
}

func (sc *ShopController) Categories(c *ctx.Context) {
	cats, err := sc.catalog.Categories(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cats)
}

func (sc *ShopController) Vendors(c *ctx.Context) {
	vendors, err := sc.catalog.Vendors(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(vendors)
}

// CartController manages the guest or customer cart.
type CartController struct {
	cart *services.CartService
}

func NewCartController(s *services.CartService) *CartController {
	return &CartController{cart: s}
}

type cartLineInput struct {
	ProductID uint `json:"product_id" validate:"required,gt=0"`
	Quantity  int  `json:"quantity" validate:"gte=0"`
}

type quantityInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

func (cc *CartController) Show(c *ctx.Context) {
	view, err := cc.cart.Get(c.Context(), cartOwner(c))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(view)
}

func (cc *CartController) Add(c *ctx.Context) {
	var in cartLineInput
	if !c.BindJSON(&in) {
		return
	}
	view, err := cc.cart.Add(c.Context(), cartOwner(c), in.ProductID, in.Quantity)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Message(http.StatusOK, "Added to cart.", view)
}

func (cc *CartController) Update(c *ctx.Context) {
	id, ok := paramID(c, "product_id", "Product")
	if !ok {
		return
	}
	var in quantityInput
	if !c.BindJSON(&in) {
		return
	}
	view, err := cc.cart.Update(c.Context(), cartOwner(c), id, in.Quantity)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(view)
}

func (cc *CartController) Remove(c *ctx.Context) {
	id, ok := paramID(c, "product_id", "Product")
	if !ok {
		return
	}
	view, err := cc.cart.Remove(c.Context(), cartOwner(c), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(view)
}

func (cc *CartController) Clear(c *ctx.Context) {
	if err := cc.cart.Clear(c.Context(), cartOwner(c)); err != nil {
		c.Fail(err)
		return
	}
	c.Message(http.StatusOK, "Cart emptied.", nil)
}

// WishlistController manages the logged-in customer's wishlist.
type WishlistController struct {
	wishlist *services.WishlistService
}

func NewWishlistController(s *services.WishlistService) *WishlistController {
	return &WishlistController{wishlist: s}
}

func (wc *WishlistController) Index(c *ctx.Context) {
	items, err := wc.wishlist.List(c.Context(), c.Identity().CustomerID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(items)
}

func (wc *WishlistController) Add(c *ctx.Context) {
	var in struct {
		ProductID uint `json:"product_id" validate:"required,gt=0"`
	}
	if !c.BindJSON(&in) {
		return
	}
	items, err := wc.wishlist.Add(c.Context(), c.Identity().CustomerID, in.ProductID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(items)
}

func (wc *WishlistController) Remove(c *ctx.Context) {
	id, ok := paramID(c, "product_id", "Product")
	if !ok {
		return
	}
	if err := wc.wishlist.Remove(c.Context(), c.Identity().CustomerID, id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}
