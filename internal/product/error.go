package product

import "builders-pos/internal/apperr"

var (
	ErrProductNotFound    = apperr.New(apperr.KindNotFound, "product not found")
	ErrInsufficientStock  = apperr.New(apperr.KindValidation, "quantity exceeds available stock")
	ErrInvalidName        = apperr.New(apperr.KindValidation, "product name cannot be empty")
	ErrInvalidPrice       = apperr.New(apperr.KindValidation, "price must be greater than zero")
	ErrNegativeStock      = apperr.New(apperr.KindValidation, "stock cannot be negative")
	ErrInvalidTransaction = apperr.New(apperr.KindValidation, "unknown inventory transaction type")
	ErrInvalidQuantity    = apperr.New(apperr.KindValidation, "quantity must be positive")
)
