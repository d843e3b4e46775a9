package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrForbidden       = errors.New("not authorized to access this order")
	ErrDuplicate       = errors.New("duplicate idempotency key")
)

func invalidRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}

// ProductNotFoundError names the cart reference that could not be resolved.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return "no product with id " + e.ProductID
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

func orderNotFound(id string) error {
	return fmt.Errorf("%w: no order with id %s", ErrOrderNotFound, id)
}
