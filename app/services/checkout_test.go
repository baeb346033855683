package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/internal/testdb"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
	"github.com/shashiranjanraj/wellness360/pkg/paystack"
)

type fakeGateway struct {
	tx        paystack.Transaction
	err       error
	initCalls []paystack.InitializeRequest
}

func (g *fakeGateway) Initialize(_ context.Context, in paystack.InitializeRequest) (*paystack.Authorization, error) {
	g.initCalls = append(g.initCalls, in)
	return &paystack.Authorization{AuthorizationURL: "https://checkout.test/abc", AccessCode: "abc"}, g.err
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*paystack.Transaction, error) {
	if g.err != nil {
		return nil, g.err
	}
	tx := g.tx
	tx.Reference = reference
	return &tx, nil
}

type checkoutCase struct {
	f        *fixture
	gw       *fakeGateway
	svc      *CheckoutService
	id       auth.Identity
	mat, bag models.Product
}

// newCheckout gives a customer with a 50.00 cart: two mats at 20 and one
// bag at 10.
func newCheckout(t *testing.T) *checkoutCase {
	t.Helper()
	f := newFixture(t)
	c := testdb.Customer(t, f.db, "ada@example.com", auth.RoleCustomer)
	mat := testdb.Product(t, f.db, "Yoga", "Mat", "20.00", 5)
	bag := testdb.Product(t, f.db, "Yoga", "Bag", "10.00", 1)

	owner := CartOwner{CustomerID: c.ID}
	ctx := context.Background()
	_, err := f.cart.Add(ctx, owner, mat.ID, 2)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, owner, bag.ID, 1)
	require.NoError(t, err)

	gw := &fakeGateway{tx: paystack.Transaction{Status: paystack.StatusSuccess, Currency: "NGN", Channel: "card"}}
	return &checkoutCase{
		f:   f,
		gw:  gw,
		svc: NewCheckoutService(f.cart, f.repos.carts, f.repos.orders, f.repos.products, gw),
		id:  identityOf(c),
		mat: mat,
		bag: bag,
	}
}

func (c *checkoutCase) verify(t *testing.T, minor int64) (Receipt, error) {
	t.Helper()
	c.gw.tx.Amount = minor
	return c.svc.Verify(context.Background(), c.id, NewReference(), decimal.RequireFromString("50.00"))
}

func TestVerifyPlacesOrder(t *testing.T) {
	c := newCheckout(t)
	rc, err := c.verify(t, 5000)
	require.NoError(t, err)

	assert.True(t, rc.Verified)
	assert.Equal(t, "50.00", rc.TotalAmount)
	assert.Equal(t, 2, rc.ItemCount)
	assert.Empty(t, rc.Warnings)
	assert.Regexp(t, `^INV-\d{8}-[0-9A-F]{8}$`, rc.InvoiceNo)

	var mat models.Product
	require.NoError(t, c.f.db.First(&mat, c.mat.ID).Error)
	assert.Equal(t, 3, mat.Stock)

	var lines, payments, cart int64
	c.f.db.Model(&models.OrderDetail{}).Where("order_id = ?", rc.OrderID).Count(&lines)
	c.f.db.Model(&models.Payment{}).Where("order_id = ?", rc.OrderID).Count(&payments)
	c.f.db.Model(&models.CartItem{}).Count(&cart)
	assert.EqualValues(t, 2, lines)
	assert.EqualValues(t, 1, payments)
	assert.Zero(t, cart)
}

func TestVerifyAmountTolerance(t *testing.T) {
	rc, err := newCheckout(t).verify(t, 4999)
	require.NoError(t, err)
	assert.Equal(t, "49.99", rc.TotalAmount)

	_, err = newCheckout(t).verify(t, 4900)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.Validation, ae.Kind)
	assert.Equal(t, "Payment amount mismatch: paid 49.00, expected 50.00.", ae.Message)
	assert.Equal(t, map[string]any{"verified": false}, ae.Data)
}

func TestVerifyRejectsFailedAndReusedPayments(t *testing.T) {
	c := newCheckout(t)
	c.gw.tx.Status = "abandoned"
	_, err := c.verify(t, 5000)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Message, "abandoned")

	c.gw.tx.Status = paystack.StatusSuccess
	ref := NewReference()
	c.gw.tx.Amount = 5000
	_, err = c.svc.Verify(context.Background(), c.id, ref, decimal.RequireFromString("50"))
	require.NoError(t, err)
	_, err = c.svc.Verify(context.Background(), c.id, ref, decimal.RequireFromString("50"))
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.Conflict, ae.Kind)
}

func TestVerifyGatewayFailure(t *testing.T) {
	c := newCheckout(t)
	c.gw.err = &paystack.Error{StatusCode: 401, Message: "Invalid key"}
	_, err := c.verify(t, 5000)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.Gateway, ae.Kind)
	assert.True(t, errors.As(err, new(*paystack.Error)))
}

func TestVerifySkipsLinesWithoutStock(t *testing.T) {
	c := newCheckout(t)
	require.NoError(t, c.f.db.Model(&models.Product{}).Where("id = ?", c.bag.ID).Update("stock", 0).Error)

	rc, err := c.verify(t, 5000)
	require.NoError(t, err)
	assert.Equal(t, 1, rc.ItemCount)
	assert.Equal(t, []string{"Insufficient stock for Bag."}, rc.Warnings)
}

func TestInitializeChargesCartTotal(t *testing.T) {
	c := newCheckout(t)
	out, err := c.svc.Initialize(context.Background(), c.id)
	require.NoError(t, err)
	assert.Equal(t, "50.00", out.Amount)
	assert.NotEmpty(t, out.Reference)
	require.Len(t, c.gw.initCalls, 1)
	assert.EqualValues(t, 5000, c.gw.initCalls[0].Amount)
	assert.Equal(t, "ada@example.com", c.gw.initCalls[0].Email)

	require.NoError(t, c.f.cart.Clear(context.Background(), CartOwner{CustomerID: c.id.CustomerID}))
	_, err = c.svc.Initialize(context.Background(), c.id)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Your cart is empty.", ae.Message)
}

func TestVerifyReconcilesAgainstServerCart(t *testing.T) {
	c := newCheckout(t)
	c.gw.tx.Amount = 1
	_, err := c.svc.Verify(context.Background(), c.id, NewReference(), decimal.RequireFromString("0.01"))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.Validation, ae.Kind)
	assert.Equal(t, "Payment amount mismatch: paid 0.01, expected 50.00.", ae.Message)
	assert.Equal(t, map[string]any{"verified": false}, ae.Data)

	var orders, payments, cart int64
	c.f.db.Model(&models.Order{}).Count(&orders)
	c.f.db.Model(&models.Payment{}).Count(&payments)
	c.f.db.Model(&models.CartItem{}).Count(&cart)
	assert.Zero(t, orders)
	assert.Zero(t, payments)
	assert.EqualValues(t, 2, cart)
}

func TestVerifyLosesReferenceRace(t *testing.T) {
	c := newCheckout(t)
	ref := NewReference()

	// A concurrent verify records the same reference right after our
	// reference lookup came back empty.
	raced := false
	require.NoError(t, c.f.db.Callback().Query().After("gorm:query").Register("test:reference_race", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "payments" {
			return
		}
		raced = true
		require.NoError(t, c.f.db.Exec(
			"INSERT INTO payments (order_id, customer_id, amount, currency, method, reference, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			999, c.id.CustomerID, "50.00", "NGN", "paystack", ref, time.Now()).Error)
	}))

	c.gw.tx.Amount = 5000
	_, err := c.svc.Verify(context.Background(), c.id, ref, decimal.RequireFromString("50.00"))
	require.True(t, raced)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.Conflict, ae.Kind)
	assert.Equal(t, "This payment reference has already been used.", ae.Message)

	var orders, cart int64
	c.f.db.Model(&models.Order{}).Count(&orders)
	c.f.db.Model(&models.CartItem{}).Count(&cart)
	assert.Zero(t, orders)
	assert.EqualValues(t, 2, cart)

	var mat models.Product
	require.NoError(t, c.f.db.First(&mat, c.mat.ID).Error)
	assert.Equal(t, 5, mat.Stock)
}
