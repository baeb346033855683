package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/database"
	"github.com/shashiranjanraj/wellness360/pkg/event"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/metrics"
	"github.com/shashiranjanraj/wellness360/pkg/paystack"
)

// AmountTolerance is the largest accepted difference between the amount
// the gateway settled and the amount the client claims.
var AmountTolerance = decimal.RequireFromString("0.01")

// Gateway is the part of the Paystack client checkout needs.
type Gateway interface {
	Initialize(ctx context.Context, in paystack.InitializeRequest) (*paystack.Authorization, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// Checkout is the initialize payload for the payment popup.
type Checkout struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	AccessCode       string `json:"access_code"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	PublicKey        string `json:"public_key"`
}

// Receipt describes the order placed from a verified payment.
type Receipt struct {
	Verified     bool     `json:"verified"`
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	OrderID      uint     `json:"order_id"`
	InvoiceNo    string   `json:"invoice_no"`
	TotalAmount  string   `json:"total_amount"`
	Currency     string   `json:"currency"`
	Reference    string   `json:"reference"`
	ItemCount    int      `json:"item_count"`
	Warnings     []string `json:"warnings"`
	OrderDate    string   `json:"order_date"`
	CustomerName string   `json:"customer_name"`
}

// OrderPlaced is the payload of event.OrderPlaced.
type OrderPlaced struct {
	OrderID    uint            `json:"order_id"`
	CustomerID uint            `json:"customer_id"`
	Email      string          `json:"email"`
	Name       string          `json:"name"`
	InvoiceNo  string          `json:"invoice_no"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
	Items      int             `json:"items"`
}

func (o OrderPlaced) EventKey() string { return o.InvoiceNo }

type CheckoutService struct {
	cart     *CartService
	carts    *repositories.CartRepository
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
	gateway  Gateway
	now      func() time.Time
}

func NewCheckoutService(cart *CartService, carts *repositories.CartRepository, orders *repositories.OrderRepository, products *repositories.ProductRepository, gw Gateway) *CheckoutService {
	return &CheckoutService{cart: cart, carts: carts, orders: orders, products: products, gateway: gw, now: time.Now}
}

// NewReference returns a fresh payment reference.
func NewReference() string { return "W360-" + uuid.NewString() }

// NewInvoiceNo returns INV-YYYYMMDD-<8 hex>.
func NewInvoiceNo(t time.Time) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("INV-%s-%s", t.Format("20060102"), strings.ToUpper(hex[:8]))
}

// Initialize starts a gateway transaction for the customer's cart total.
// The caller keeps the returned reference in the session.
func (s *CheckoutService) Initialize(ctx context.Context, id auth.Identity) (Checkout, error) {
	cart, err := s.cart.Get(ctx, CartOwner{CustomerID: id.CustomerID})
	if err != nil {
		return Checkout{}, err
	}
	if len(cart.Items) == 0 {
		return Checkout{}, apperr.Invalidf("Your cart is empty.")
	}
	ref := NewReference()
	currency := config.PaystackCurrency()
	authz, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       id.Email,
		Amount:      paystack.ToMinor(cart.Amount()),
		Currency:    currency,
		Reference:   ref,
		CallbackURL: config.PaystackCallbackURL(),
		Metadata:    map[string]any{"customer_id": id.CustomerID, "item_count": cart.Count},
	})
	if err != nil {
		return Checkout{}, gatewayError(err)
	}
	if authz.Reference != "" {
		ref = authz.Reference
	}
	return Checkout{
		AuthorizationURL: authz.AuthorizationURL,
		Reference:        ref,
		AccessCode:       authz.AccessCode,
		Amount:           cart.Amount().StringFixed(2),
		Currency:         currency,
		PublicKey:        config.PaystackPublicKey(),
	}, nil
}

// Verify confirms the payment with the gateway, checks the settled amount
// against claimed and the cart total, and turns the customer's cart into a
// paid order.
func (s *CheckoutService) Verify(ctx context.Context, id auth.Identity, reference string, claimed decimal.Decimal) (Receipt, error) {
	log := logger.WithCtx(ctx)
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Receipt{}, apperr.Invalidf("Payment reference is required.")
	}
	if used, err := s.orders.ReferenceUsed(ctx, reference); err != nil {
		return Receipt{}, err
	} else if used {
		return Receipt{}, apperr.Conflictf("This payment reference has already been used.")
	}

	tx, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("gateway_error").Inc()
		return Receipt{}, gatewayError(err)
	}
	if tx.Status != paystack.StatusSuccess {
		metrics.PaymentVerifications.WithLabelValues("failed").Inc()
		return Receipt{}, unverified(apperr.Invalidf("Payment was not successful (status: %s).", tx.Status))
	}
	owner := CartOwner{CustomerID: id.CustomerID}
	cart, err := s.cart.Get(ctx, owner)
	if err != nil {
		return Receipt{}, err
	}
	if len(cart.Items) == 0 {
		return Receipt{}, apperr.Invalidf("Your cart is empty.")
	}

	// The settled amount must match both the client's claim and the
	// cart total held on the server.
	paid := paystack.ToMajor(tx.Amount)
	for _, expected := range []decimal.Decimal{claimed, cart.Amount()} {
		if paid.Sub(expected).Abs().GreaterThan(AmountTolerance) {
			metrics.PaymentVerifications.WithLabelValues("mismatch").Inc()
			log.Warn("payment amount mismatch", "reference", reference,
				"paid", paid.StringFixed(2), "claimed", claimed.StringFixed(2), "cart", cart.Total)
			return Receipt{}, unverified(apperr.Invalidf("Payment amount mismatch: paid %s, expected %s.", paid.StringFixed(2), expected.StringFixed(2)))
		}
	}
	metrics.PaymentVerifications.WithLabelValues("verified").Inc()
	items := cart.Items

	currency := strings.ToUpper(tx.Currency)
	if currency == "" {
		currency = config.PaystackCurrency()
	}
	now := s.now()
	order := models.Order{
		CustomerID:  id.CustomerID,
		InvoiceNo:   NewInvoiceNo(now),
		Status:      models.OrderPaid,
		TotalAmount: paid,
		Currency:    currency,
	}
	paidAt := now
	if t, err := time.Parse(time.RFC3339, tx.PaidAt); err == nil {
		paidAt = t
	}
	var warnings []string
	placed := 0
	err = s.orders.Transaction(ctx, func(db *gorm.DB) error {
		orders, products := s.orders.WithTx(db), s.products.WithTx(db)
		if err := orders.Create(ctx, &order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		// payments.reference is unique: a concurrent verify of the same
		// reference fails here and its order rolls back.
		payment := models.Payment{
			OrderID:    order.ID,
			CustomerID: id.CustomerID,
			Amount:     paid,
			Currency:   currency,
			Method:     "paystack",
			Channel:    tx.Channel,
			Reference:  reference,
			PaidAt:     &paidAt,
		}
		if err := orders.CreatePayment(ctx, &payment); err != nil {
			if database.IsDuplicate(err) {
				return apperr.Conflictf("This payment reference has already been used.")
			}
			return fmt.Errorf("record payment: %w", err)
		}
		ids := make([]uint, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ProductID)
		}
		current, err := products.FindMany(ctx, ids)
		if err != nil {
			return err
		}
		for _, it := range items {
			p, ok := current[it.ProductID]
			if !ok {
				warnings = append(warnings, fmt.Sprintf("Product #%d no longer available.", it.ProductID))
				continue
			}
			done, err := products.DecrementStock(ctx, p.ID, it.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !done {
				warnings = append(warnings, fmt.Sprintf("Insufficient stock for %s.", p.Title))
				continue
			}
			line := models.OrderDetail{OrderID: order.ID, ProductID: p.ID, Quantity: it.Quantity, UnitPrice: p.Price}
			if err := orders.AddDetail(ctx, &line); err != nil {
				return fmt.Errorf("add order line: %w", err)
			}
			placed++
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	if len(warnings) > 0 {
		log.Warn("order lines dropped", "order_id", order.ID, "warnings", warnings)
	}

	if err := s.carts.Clear(ctx, owner.Key()); err != nil {
		log.Error("cart empty failed", "order_id", order.ID, "error", err)
	}

	metrics.OrdersPlaced.Inc()
	event.FireAsync(ctx, event.OrderPlaced, OrderPlaced{
		OrderID: order.ID, CustomerID: id.CustomerID, Email: id.Email, Name: id.Name,
		InvoiceNo: order.InvoiceNo, Total: paid, Currency: currency, Items: placed,
	})
	log.Info("order placed", "order_id", order.ID, "invoice_no", order.InvoiceNo, "total", paid.StringFixed(2), "lines", placed)

	if warnings == nil {
		warnings = []string{}
	}
	return Receipt{
		Verified:     true,
		Status:       paystack.StatusSuccess,
		Message:      "Payment verified and order placed.",
		OrderID:      order.ID,
		InvoiceNo:    order.InvoiceNo,
		TotalAmount:  paid.StringFixed(2),
		Currency:     currency,
		Reference:    reference,
		ItemCount:    placed,
		Warnings:     warnings,
		OrderDate:    now.Format("2006-01-02 15:04:05"),
		CustomerName: id.Name,
	}, nil
}

func unverified(e *apperr.Error) error {
	return e.WithData(map[string]any{"verified": false})
}

func gatewayError(err error) error {
	var pe *paystack.Error
	if errors.As(err, &pe) {
		return apperr.Wrap(apperr.Gateway, err, "Payment gateway error: %s", pe.Message)
	}
	if errors.Is(err, paystack.ErrNotConfigured) {
		return apperr.Wrap(apperr.Gateway, err, "Payment gateway is not configured.")
	}
	return apperr.Wrap(apperr.Gateway, err, "Payment gateway is unavailable.")
}
