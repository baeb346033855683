package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/wellness360/internal/testdb"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
)

func TestCartAddRespectsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mat := testdb.Product(t, f.db, "Yoga", "Mat", "12.50", 3)
	gone := testdb.Product(t, f.db, "Yoga", "Block", "5", 0)
	guest := CartOwner{IP: "10.0.0.7"}

	view, err := f.cart.Add(ctx, guest, mat.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "25.00", view.Total)
	assert.Equal(t, 2, view.Count)

	_, err = f.cart.Add(ctx, guest, mat.ID, 2)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Only 3 left in stock.", ae.Message)

	_, err = f.cart.Add(ctx, guest, gone.ID, 1)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Block is out of stock.", ae.Message)

	_, err = f.cart.Update(ctx, guest, gone.ID, 1)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.NotFound, ae.Kind)
}

func TestLoginMergesGuestCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testdb.Customer(t, f.db, "grace@example.com", auth.RoleCustomer)
	mat := testdb.Product(t, f.db, "Yoga", "Mat", "10", 4)
	svc := NewAuthService(f.repos.customers, f.cart, nil)

	_, err := f.cart.Add(ctx, CartOwner{CustomerID: c.ID}, mat.ID, 3)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, CartOwner{IP: "10.0.0.9"}, mat.ID, 2)
	require.NoError(t, err)

	res, err := svc.Login(ctx, LoginInput{Email: "grace@example.com", Password: "secret1"}, "10.0.0.9")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, c.ID, res.Identity().CustomerID)

	mine, err := f.cart.Get(ctx, CartOwner{CustomerID: c.ID})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, 4, mine.Items[0].Quantity, "capped at stock")

	guest, err := f.cart.Get(ctx, CartOwner{IP: "10.0.0.9"})
	require.NoError(t, err)
	assert.Empty(t, guest.Items)
}

func TestAuthRegisterAndBadLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewAuthService(f.repos.customers, f.cart, nil)
	in := RegisterInput{Name: "Lin", Email: "Lin@Example.com", Password: "secret1", PasswordConfirmation: "secret1"}

	res, err := svc.Register(ctx, in, "")
	require.NoError(t, err)
	assert.Equal(t, "lin@example.com", res.Customer.Email)
	assert.Equal(t, auth.RoleCustomer, res.Customer.Role)

	_, err = svc.Register(ctx, in, "")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "The email has already been taken.", ae.Fields["email"])

	_, err = svc.Login(ctx, LoginInput{Email: "lin@example.com", Password: "wrong"}, "")
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.Unauthorized, ae.Kind)
}
