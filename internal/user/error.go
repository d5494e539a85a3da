package user

import (
	"builders-pos/internal/apperr"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.KindValidation, "invalid username or password")
	ErrUsernameExists     = apperr.New(apperr.KindValidation, "username already exists")
	ErrMissingField       = apperr.New(apperr.KindValidation, "username, password and name are required")
	ErrUserNotFound       = apperr.New(apperr.KindNotFound, "no active account found")
	ErrInvalidResetCode   = apperr.New(apperr.KindValidation, "invalid or expired code")
	ErrPasswordMismatch   = apperr.New(apperr.KindValidation, "passwords do not match")
	ErrNoIdentity         = apperr.New(apperr.KindValidation, "no authenticated identity")
	ErrForbidden          = apperr.New(apperr.KindValidation, "role not allowed")
)
