package errors

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyAuth               = errors.New("missing authorization")
	ErrEmptySubject            = errors.New("missing subject")
	ErrTokenInvalid            = errors.New("invalid token")
	ErrInvalidQuantity         = errors.New("quantity must be at least 1")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrDraftNotFound           = errors.New("order draft not found")
	ErrShippingAddressRequired = errors.New("shipping address is required for physical items")
	ErrMissingAuthorizationURL = errors.New("payment initialization failed")
	ErrPriceMismatch           = errors.New("draft total does not match derived pricing")
	ErrOrderNotFound           = errors.New("order not found")
	ErrCheckoutNotFound        = errors.New("no checkout in progress")
)

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
