package payment

import "builders-pos/internal/apperr"

var (
	ErrMethodRequired = apperr.New(apperr.KindValidation, "please select payment method")
	ErrUnknownMethod  = apperr.New(apperr.KindValidation, "unknown payment method")
	ErrPhoneRequired  = apperr.New(apperr.KindValidation, "please enter phone number")
	ErrInvalidPIN     = apperr.New(apperr.KindValidation, "invalid PIN entered, transaction cancelled")
	ErrInvalidAmount  = apperr.New(apperr.KindValidation, "amount must be positive")
)
