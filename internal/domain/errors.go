package domain

import "errors"

// Error categories. Every specific error below unwraps to one of them.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("conflict")
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	ErrGateway          = errors.New("payment gateway error")
)

var (
	ErrCartNotFound        = newError(ErrNotFound, "cart not found")
	ErrItemNotFound        = newError(ErrNotFound, "item not in cart")
	ErrProductNotFound     = newError(ErrNotFound, "product not found")
	ErrOrderNotFound       = newError(ErrNotFound, "order not found")
	ErrTransactionNotFound = newError(ErrNotFound, "transaction not found")
	ErrUserNotFound        = newError(ErrNotFound, "user not found")

	ErrCartEmpty                = newError(ErrInvalidState, "cart is empty")
	ErrUnsupportedPaymentMethod = newError(ErrInvalidState, "unsupported payment method")
	ErrOrderAlreadyPaid         = newError(ErrInvalidState, "order is already paid")

	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid credentials")
	ErrInvalidToken       = newError(ErrUnauthorized, "invalid token")
	ErrTokenExpired       = newError(ErrUnauthorized, "token has expired")

	ErrEmailTaken = newError(ErrConflict, "email already registered")
)

type categorizedError struct {
	category error
	msg      string
}

func newError(category error, msg string) error {
	return &categorizedError{category: category, msg: msg}
}

func (e *categorizedError) Error() string { return e.msg }

func (e *categorizedError) Unwrap() error { return e.category }
