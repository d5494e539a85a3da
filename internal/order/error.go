package order

import "builders-pos/internal/apperr"

var (
	ErrOrderNotFound     = apperr.New(apperr.KindNotFound, "order not found")
	ErrInvalidToken      = apperr.New(apperr.KindValidation, "invalid token")
	ErrMalformedToken    = apperr.New(apperr.KindValidation, "token must be 8 characters")
	ErrTokenExpired      = apperr.New(apperr.KindValidation, "token expired")
	ErrInvalidTransition = apperr.New(apperr.KindValidation, "order cannot change to that status")
	ErrNoSaleItems       = apperr.New(apperr.KindValidation, "no items in sale")
	ErrInvalidQuantity   = apperr.New(apperr.KindValidation, "quantity must be positive")
	ErrTokenExhausted    = apperr.New(apperr.KindPersistence, "could not generate an unused token")
)
