package transport

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func TestNewPaymentResponse_ErrorOnlyWhenFailed(t *testing.T) {
	t.Parallel()

	ok := NewPaymentResponse(&models.Payment{
		ID: 1, OrderID: 2, Status: models.PaymentSuccess,
		Amount: decimal.RequireFromString("20.00"), TransactionID: "tx", FailureReason: "stale",
	})
	assert.Empty(t, ok.Error)

	raw, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"error"`)

	failed := NewPaymentResponse(&models.Payment{Status: models.PaymentFailed, FailureReason: "payment declined by bank"})
	assert.Equal(t, "payment declined by bank", failed.Error)
}

func TestNewCardResponse_MasksNumber(t *testing.T) {
	t.Parallel()

	resp := NewCardResponse(models.CreditCard{ID: 3, CardNumber: "4111111111111111", CVV: "123", CardHolderName: "A B"})
	assert.Equal(t, "**** **** **** 1111", resp.MaskedNumber)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "4111111111111111")
	assert.NotContains(t, string(raw), "123\"")
}
