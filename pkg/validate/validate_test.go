package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/wellness360/pkg/validate"
)

type registerInput struct {
	Name                 string `json:"name"                  validate:"required,max=100"`
	Email                string `json:"email"                 validate:"required,email"`
	Password             string `json:"password"              validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"confirmed"`
	Contact              string `json:"contact"               validate:"nullable,max=20"`
}

func TestValidRegistration(t *testing.T) {
	errs := validate.Struct(registerInput{
		Name:                 "Ama Mensah",
		Email:                "ama@example.com",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	})
	assert.False(t, validate.HasErrors(errs), "%v", errs)
}

func TestRequiredFields(t *testing.T) {
	errs := validate.Struct(registerInput{})
	assert.Equal(t, "The name field is required.", errs["name"])
	assert.Equal(t, "The email field is required.", errs["email"])
	assert.Contains(t, errs, "password")
}

func TestBlankStringIsEmpty(t *testing.T) {
	type in struct {
		Title string `json:"title" validate:"required"`
	}
	assert.Contains(t, validate.Struct(in{Title: "   "}), "title")
}

func TestEmailRule(t *testing.T) {
	type in struct {
		Email string `json:"email" validate:"required,email"`
	}
	assert.Contains(t, validate.Struct(in{Email: "not-an-email"}), "email")
	assert.Empty(t, validate.Struct(in{Email: "valid@example.com"}))
}

func TestConfirmedRule(t *testing.T) {
	errs := validate.Struct(registerInput{
		Name: "x", Email: "x@y.io", Password: "secret1", PasswordConfirmation: "other",
	})
	assert.Equal(t, "The password_confirmation confirmation does not match.", errs["password_confirmation"])
}

func TestNumericAndBounds(t *testing.T) {
	type in struct {
		Price    string `json:"price"    validate:"required,numeric,gte=0"`
		Quantity int    `json:"quantity" validate:"required,gte=1,lte=100"`
	}
	assert.Contains(t, validate.Struct(in{Price: "abc", Quantity: 1}), "price")
	assert.Contains(t, validate.Struct(in{Price: "-1", Quantity: 1}), "price")
	assert.Contains(t, validate.Struct(in{Price: "10", Quantity: 101}), "quantity")
	assert.Empty(t, validate.Struct(in{Price: "19.99", Quantity: 3}))
}

func TestMoneyRule(t *testing.T) {
	type in struct {
		Price string `json:"product_price" validate:"required,money"`
	}
	assert.Empty(t, validate.Struct(in{Price: "19.99"}))
	assert.Empty(t, validate.Struct(in{Price: "20.50"}))
	assert.Empty(t, validate.Struct(in{Price: "7"}))
	for _, bad := range []string{"19.999", "-1", "abc"} {
		assert.Equal(t, "The product_price must be a non-negative amount with at most 2 decimals.",
			validate.Struct(in{Price: bad})["product_price"], bad)
	}
}

func TestInRuleKeepsListTogether(t *testing.T) {
	type in struct {
		Role int    `json:"role"   validate:"required,in=1,2"`
		Sort string `json:"sort"   validate:"nullable,in=newest,price_asc,price_desc,title,max=20"`
	}
	assert.Empty(t, validate.Struct(in{Role: 2, Sort: "price_asc"}))
	assert.Equal(t, "The selected role is invalid.", validate.Struct(in{Role: 3})["role"])
	assert.Contains(t, validate.Struct(in{Role: 1, Sort: "random"}), "sort")
}

func TestNullableSkipsRules(t *testing.T) {
	type in struct {
		Email string `json:"email" validate:"nullable,email"`
	}
	assert.Empty(t, validate.Struct(in{}))
	assert.Contains(t, validate.Struct(in{Email: "nope"}), "email")
}

func TestPointerFields(t *testing.T) {
	type in struct {
		Stock *int `json:"stock" validate:"nullable,gte=0"`
		Cat   *int `json:"cat"   validate:"required"`
	}
	neg := -1
	errs := validate.Struct(in{Stock: &neg})
	assert.Contains(t, errs, "stock")
	assert.Contains(t, errs, "cat")
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2026-11-02T09:00:00Z", "2026-11-02 09:00", "2026-11-02"} {
		_, err := validate.ParseDate(s)
		assert.NoError(t, err, s)
	}
	_, err := validate.ParseDate("next tuesday")
	assert.Error(t, err)
}
