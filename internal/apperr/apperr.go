package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so workflows and callers can react to it
// without matching on messages.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation aborts a mutation before any state changes.
	KindValidation
	// KindNotFound marks an unresolvable product, order or record id.
	KindNotFound
	// KindPersistence is a rejected backend write. In-memory state is kept.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a sentinel error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op string, err error) error {
	return Wrap(KindValidation, op, err)
}

func NotFound(op string, err error) error {
	return Wrap(KindNotFound, op, err)
}

func Persistence(op string, err error) error {
	return Wrap(KindPersistence, op, err)
}

// KindOf returns the outermost kind found in the error chain.
func KindOf(err error) Kind {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.Kind != KindUnknown {
				return e.Kind
			}
			err = e.Err
			continue
		}
		return KindUnknown
	}
	return KindUnknown
}

func IsValidation(err error) bool  { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool    { return KindOf(err) == KindNotFound }
func IsPersistence(err error) bool { return KindOf(err) == KindPersistence }
