package cart

import "builders-pos/internal/apperr"

var (
	// -- Validation & Input --
	ErrInvalidQuantity   = apperr.New(apperr.KindValidation, "invalid cart quantity")
	ErrInsufficientStock = apperr.New(apperr.KindValidation, "not enough stock")
	ErrCartEmpty         = apperr.New(apperr.KindValidation, "cart is empty")

	// -- Resource State --
	ErrCartItemNotFound = apperr.New(apperr.KindNotFound, "cart item not found")
)
