package dashboard

import "builders-pos/internal/apperr"

var (
	ErrUnknownSection = apperr.New(apperr.KindNotFound, "unknown dashboard section")
	ErrUnknownReport  = apperr.New(apperr.KindValidation, "unknown report type")
)
