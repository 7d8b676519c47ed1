package checkout

import (
	"errors"
	"strings"
)

var ErrEmptyCart = errors.New("checkout: cart is empty")

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "checkout: missing required fields: " + strings.Join(e.Fields, ", ")
}

// InitiationError hides the processor or data failure behind one message.
type InitiationError struct {
	Err error
}

func (e *InitiationError) Error() string { return "checkout: could not start payment session" }

func (e *InitiationError) Unwrap() error { return e.Err }
