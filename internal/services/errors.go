package services

import (
	"errors"
	"fmt"

	"github.com/acquisitions/apiserver/internal/store"
)

// Kind classifies service failures so callers can map them without
// inspecting error text.
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidCredentials
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidCredentials:
		return "invalid_credentials"
	default:
		return "internal"
	}
}

// Error is the error type returned by services.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal if there is none.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

func newError(op string, kind Kind, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// wrapStore tags repository errors with their service kind.
func wrapStore(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(op, KindNotFound, err)
	case errors.Is(err, store.ErrConflict):
		return newError(op, KindConflict, err)
	default:
		return newError(op, KindInternal, err)
	}
}
