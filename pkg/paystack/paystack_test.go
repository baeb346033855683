package paystack

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wellhttp "github.com/shashiranjanraj/wellness360/pkg/http"
	"github.com/shashiranjanraj/wellness360/pkg/testkit"
)

func testClient() *Client {
	return &Client{BaseURL: "https://paystack.test", SecretKey: "sk_test_x"}
}

func TestVerifyDecodesTransaction(t *testing.T) {
	mt := testkit.Mock(testkit.JSONStep("https://paystack.test/transaction/verify/W360-abc", 200,
		`{"status":true,"message":"Verification successful","data":{"status":"success","reference":"W360-abc","amount":5000,"currency":"GHS","channel":"card","customer":{"email":"a@b.c"}}}`))
	wellhttp.DefaultClient.Transport = mt
	defer wellhttp.ResetTransport()

	tx, err := testClient().Verify(context.Background(), "W360-abc")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, tx.Status)
	assert.Equal(t, int64(5000), tx.Amount)
	assert.Equal(t, "a@b.c", tx.Customer.Email)

	reqs := mt.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer sk_test_x", reqs[0].Header.Get("Authorization"))
	assert.Empty(t, mt.AssertAllCalled())
}

func TestVerifyEscapesReference(t *testing.T) {
	mt := testkit.Mock(testkit.JSONStep("https://paystack.test/transaction/verify/a%2Fb", 200,
		`{"status":true,"data":{"status":"success","reference":"a/b","amount":100}}`))
	wellhttp.DefaultClient.Transport = mt
	defer wellhttp.ResetTransport()

	_, err := testClient().Verify(context.Background(), "a/b")
	require.NoError(t, err)
}

func TestGatewayErrorCarriesMessage(t *testing.T) {
	wellhttp.DefaultClient.Transport = testkit.Mock(testkit.JSONStep("https://paystack.test/", 400,
		`{"status":false,"message":"Transaction reference not found"}`))
	defer wellhttp.ResetTransport()

	_, err := testClient().Verify(context.Background(), "nope")
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 400, pe.StatusCode)
	assert.Equal(t, "Transaction reference not found", pe.Message)
}

func TestInitializeRequiresSecret(t *testing.T) {
	c := testClient()
	c.SecretKey = ""
	_, err := c.Initialize(context.Background(), InitializeRequest{Email: "a@b.c", Amount: 100})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestInitializeReturnsAuthorization(t *testing.T) {
	wellhttp.DefaultClient.Transport = testkit.Mock(testkit.JSONStep("https://paystack.test/transaction/initialize", 200,
		`{"status":true,"data":{"authorization_url":"https://checkout.paystack.com/x","access_code":"x","reference":"W360-1"}}`))
	defer wellhttp.ResetTransport()

	auth, err := testClient().Initialize(context.Background(), InitializeRequest{Email: "a@b.c", Amount: 5000, Reference: "W360-1"})
	require.NoError(t, err)
	assert.Equal(t, "W360-1", auth.Reference)
	assert.Equal(t, "https://checkout.paystack.com/x", auth.AuthorizationURL)
}

func TestMoneyConversion(t *testing.T) {
	assert.Equal(t, "50.00", ToMajor(5000).StringFixed(2))
	assert.Equal(t, "49.99", ToMajor(4999).StringFixed(2))
	assert.Equal(t, int64(5000), ToMinor(decimal.RequireFromString("50")))
	assert.Equal(t, int64(1999), ToMinor(decimal.RequireFromString("19.985")))
}
