package feedback

import "builders-pos/internal/apperr"

var (
	ErrInvalidRating = apperr.New(apperr.KindValidation, "rating must be between 1 and 5")
	ErrEmptyComment  = apperr.New(apperr.KindValidation, "comment cannot be empty")
)
