package payment

import (
	"context"
	"testing"
	"time"

	"builders-pos/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOnline(t *testing.T) {
	assert.ErrorIs(t, ValidateOnline("", "0991234567"), ErrMethodRequired)
	assert.ErrorIs(t, ValidateOnline("bitcoin", "0991234567"), ErrUnknownMethod)
	assert.ErrorIs(t, ValidateOnline(MethodMobile, "  "), ErrPhoneRequired)
	assert.NoError(t, ValidateOnline(MethodMobile, "0991234567"))
}

func TestValidateInStore(t *testing.T) {
	tests := []struct {
		name    string
		method  Method
		pin     string
		wantErr error
	}{
		{"CashNeedsNoPIN", MethodCash, "", nil},
		{"EmptyDefaultsToCash", "", "", nil},
		{"CardNeedsNoPIN", MethodCard, "", nil},
		{"MobileThreeDigits", MethodMobile, "123", nil},
		{"BankSixDigits", MethodBankTransfer, "123456", nil},
		{"MobileMissingPIN", MethodMobile, "", ErrInvalidPIN},
		{"BankTooLong", MethodBankTransfer, "1234567", ErrInvalidPIN},
		{"MobileLetters", MethodMobile, "12a4", ErrInvalidPIN},
		{"UnknownMethod", "voucher", "", ErrUnknownMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInStore(tt.method, tt.pin)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestMockGateway_Authorize(t *testing.T) {
	now := time.UnixMilli(1717000000000)
	g := NewMockGateway(func() time.Time { return now })

	receipt, err := g.Authorize(context.Background(), Request{OrderID: "SALE1", Amount: 5000, Method: MethodMobile, PIN: "4321"})
	require.NoError(t, err)
	assert.Equal(t, "MOCKREF1717000000000", receipt.Reference)
	assert.Equal(t, StatusCompleted, receipt.Status)
	assert.True(t, now.Equal(receipt.PaidAt))

	_, err = g.Authorize(context.Background(), Request{OrderID: "SALE1", Amount: 5000, Method: MethodMobile, PIN: "12"})
	assert.ErrorIs(t, err, ErrInvalidPIN)

	_, err = g.Authorize(context.Background(), Request{OrderID: "SALE1", Amount: 0, Method: MethodCash})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMethod_RequiresPIN(t *testing.T) {
	assert.True(t, MethodMobile.RequiresPIN())
	assert.True(t, MethodBankTransfer.RequiresPIN())
	assert.False(t, MethodCash.RequiresPIN())
	assert.False(t, MethodCheque.RequiresPIN())
}
