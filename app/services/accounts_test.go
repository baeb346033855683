package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/internal/testdb"
	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
)

func TestOrderShowHidesOtherCustomersOrders(t *testing.T) {
	db := testdb.Open(t)
	owner := testdb.Customer(t, db, "ada@example.com", auth.RoleCustomer)
	other := testdb.Customer(t, db, "kofi@example.com", auth.RoleCustomer)
	admin := testdb.Customer(t, db, "ama@example.com", auth.RoleAdmin)
	o := models.Order{
		CustomerID: owner.ID, InvoiceNo: "INV-20260101-0000000A", Status: models.OrderPaid,
		TotalAmount: decimal.RequireFromString("50.00"), Currency: "NGN",
	}
	require.NoError(t, db.Create(&o).Error)
	svc := NewOrderService(repositories.NewOrderRepository(db))

	tests := []struct {
		name    string
		viewer  models.Customer
		orderID uint
		found   bool
	}{
		{"owner", owner, o.ID, true},
		{"admin", admin, o.ID, true},
		{"another customer", other, o.ID, false},
		{"missing order", owner, o.ID + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Show(context.Background(), identityOf(tt.viewer), tt.orderID)
			if tt.found {
				require.NoError(t, err)
				assert.Equal(t, o.InvoiceNo, got.InvoiceNo)
				return
			}
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperr.NotFound, ae.Kind)
			assert.Equal(t, "Order not found.", ae.Message)
			assert.Zero(t, got.ID)
		})
	}
}

func TestAdminCannotDemoteOrDeleteThemselves(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	admin := testdb.Customer(t, db, "ama@example.com", auth.RoleAdmin)
	member := testdb.Customer(t, db, "kofi@example.com", auth.RoleCustomer)
	svc := NewUserService(repositories.NewCustomerRepository(db))
	actor := identityOf(admin)

	tests := []struct {
		name string
		run  func() error
		want string
	}{
		{"self demote", func() error {
			_, err := svc.SetRole(ctx, actor, admin.ID, auth.RoleCustomer)
			return err
		}, "You cannot remove your own admin role."},
		{"self delete", func() error { return svc.Delete(ctx, actor, admin.ID) }, "You cannot delete your own account."},
		{"promote other", func() error {
			c, err := svc.SetRole(ctx, actor, member.ID, auth.RoleAdmin)
			if err == nil {
				assert.Equal(t, auth.RoleAdmin, c.Role)
			}
			return err
		}, ""},
		{"keep own admin role", func() error {
			_, err := svc.SetRole(ctx, actor, admin.ID, auth.RoleAdmin)
			return err
		}, ""},
		{"delete other", func() error { return svc.Delete(ctx, actor, member.ID) }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperr.Validation, ae.Kind)
			assert.Equal(t, tt.want, ae.Message)
		})
	}

	var self models.Customer
	require.NoError(t, db.First(&self, admin.ID).Error)
	assert.Equal(t, auth.RoleAdmin, self.Role)
	var n int64
	db.Model(&models.Customer{}).Where("id = ?", member.ID).Count(&n)
	assert.Zero(t, n)
}

func TestWishlistAdd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := testdb.Customer(t, f.db, "ada@example.com", auth.RoleCustomer)
	mat := testdb.Product(t, f.db, "Yoga", "Mat", "20.00", 5)
	svc := NewWishlistService(repositories.NewWishlistRepository(f.db), f.repos.products)

	tests := []struct {
		name      string
		productID uint
		notFound  bool
		items     int
	}{
		{"first add", mat.ID, false, 1},
		{"second add is a no-op", mat.ID, false, 1},
		{"missing product", mat.ID + 999, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.Add(ctx, c.ID, tt.productID)
			if tt.notFound {
				var ae *apperr.Error
				require.ErrorAs(t, err, &ae)
				assert.Equal(t, apperr.NotFound, ae.Kind)
				assert.Equal(t, "Product not found.", ae.Message)
			} else {
				require.NoError(t, err)
				assert.Len(t, items, tt.items)
			}
			var n int64
			f.db.Model(&models.WishlistItem{}).Where("customer_id = ?", c.ID).Count(&n)
			assert.EqualValues(t, tt.items, n)
		})
	}
}
