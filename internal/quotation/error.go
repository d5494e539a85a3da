package quotation

import "builders-pos/internal/apperr"

var (
	ErrEmptyDescription = apperr.New(apperr.KindValidation, "describe what you need quoted")
	ErrInvalidBudget    = apperr.New(apperr.KindValidation, "budget cannot be negative")
	ErrPhoneRequired    = apperr.New(apperr.KindValidation, "phone number is required")
)
