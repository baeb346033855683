package controllers

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/pkg/ctx"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
)

type CheckoutController struct {
	checkout *services.CheckoutService
}

func NewCheckoutController(s *services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkout: s}
}

type verifyInput struct {
	Reference   string      `json:"reference"`
	TotalAmount json.Number `json:"total_amount" validate:"required,numeric,gte=0"`
}

func (cc *CheckoutController) Initialize(c *ctx.Context) {
	out, err := cc.checkout.Initialize(c.Context(), c.Identity())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Session().Set(SessPaystackRef, out.Reference)
	c.SaveSession()
	c.Success(out)
}

func (cc *CheckoutController) Verify(c *ctx.Context) {
	var in verifyInput
	if !c.BindJSON(&in) {
		return
	}
	ref := in.Reference
	if ref == "" {
		ref, _ = c.Session().GetString(SessPaystackRef)
	}
	claimed, err := decimal.NewFromString(in.TotalAmount.String())
	if err != nil {
		c.ValidationError(map[string]string{"total_amount": "The total_amount must be a number."})
		return
	}
	receipt, err := cc.checkout.Verify(c.Context(), c.Identity(), ref, claimed)
	if err != nil {
		logger.WithCtx(c.Context()).Warn("payment verification rejected", "reference", ref, "error", err)
		c.Fail(err)
		return
	}
	c.Session().Delete(SessPaystackRef)
	c.SaveSession()
	c.Success(receipt)
}

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(s *services.OrderService) *OrderController {
	return &OrderController{orders: s}
}

func (oc *OrderController) Index(c *ctx.Context) {
	items, page, err := oc.orders.Mine(c.Context(), c.Identity().CustomerID, c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(items, page)
}

func (oc *OrderController) Show(c *ctx.Context) {
	id, ok := paramID(c, "id", "Order")
	if !ok {
		return
	}
	order, err := oc.orders.Show(c.Context(), c.Identity(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}

// AdminIndex lists all orders, optionally by status.
func (oc *OrderController) AdminIndex(c *ctx.Context) {
	items, page, err := oc.orders.All(c.Context(), c.Query("status"), c.Page())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Paginated(items, page)
}

func (oc *OrderController) SetStatus(c *ctx.Context) {
	id, ok := paramID(c, "id", "Order")
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	order, err := oc.orders.SetStatus(c.Context(), id, in.Status)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(order)
}
