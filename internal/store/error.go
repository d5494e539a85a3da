package store

import "errors"

var (
	// -- Backend --
	ErrNotFound      = errors.New("key not found")
	ErrConflict      = errors.New("revision conflict")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrInvalidKey    = errors.New("invalid storage key")
	ErrClosed        = errors.New("backend closed")

	// -- Store --
	ErrDecode = errors.New("failed to decode collection")
)
