package core

import (
	"errors"
	"fmt"

	"github.com/samber/mo"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

var (
	// ErrContactNotFound is returned by the contact cache when a provider could not resolve an entry.
	// It wraps ErrNotFound so IsNotFoundError matches it.
	ErrContactNotFound = fmt.Errorf("contact %w", ErrNotFound)

	// ErrUnknownIdentity marks payloads the classifier could not place into a category.
	ErrUnknownIdentity = errors.New("unknown message identity")

	// ErrHandlerFailure marks an error or panic raised inside a subscribed handler.
	ErrHandlerFailure = errors.New("handler failure")
)

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// UnknownIdentityError carries a best-effort discriminator describing why classification failed,
// e.g. "message.unknown_subtype".
type UnknownIdentityError struct {
	Discriminator mo.Option[string]
}

func (e *UnknownIdentityError) Error() string {
	if d, ok := e.Discriminator.Get(); ok {
		return fmt.Sprintf("%s: %s", ErrUnknownIdentity.Error(), d)
	}
	return ErrUnknownIdentity.Error()
}

func (e *UnknownIdentityError) Unwrap() error {
	return ErrUnknownIdentity
}

// NewUnknownIdentity builds an UnknownIdentityError; an empty discriminator means none is known.
func NewUnknownIdentity(discriminator string) *UnknownIdentityError {
	if discriminator == "" {
		return &UnknownIdentityError{Discriminator: mo.None[string]()}
	}
	return &UnknownIdentityError{Discriminator: mo.Some(discriminator)}
}

// IsUnknownIdentity checks if an error is an UnknownIdentityError
func IsUnknownIdentity(err error) (*UnknownIdentityError, bool) {
	var identityErr *UnknownIdentityError
	if errors.As(err, &identityErr) {
		return identityErr, true
	}
	return nil, false
}

// HandlerError wraps a failure from a named subscriber.
type HandlerError struct {
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s failed: %v", e.Handler, e.Err)
}

func (e *HandlerError) Unwrap() []error {
	return []error{ErrHandlerFailure, e.Err}
}
