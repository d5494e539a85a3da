package supplier

import "builders-pos/internal/apperr"

var (
	ErrMissingField     = apperr.New(apperr.KindValidation, "name, contact, phone and products are required")
	ErrInvalidPhone     = apperr.New(apperr.KindValidation, "phone number must look like 0888123456")
	ErrSupplierNotFound = apperr.New(apperr.KindNotFound, "supplier not found")
)
