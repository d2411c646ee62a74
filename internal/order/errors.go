package order

import "errors"

var (
	// ErrRejected is returned when the order service declines the order.
	ErrRejected = errors.New("order: rejected by order service")

	// ErrNoItems is returned when a payload has no items.
	ErrNoItems = errors.New("order: no items")

	// ErrUnavailable is returned when the order service cannot be reached.
	ErrUnavailable = errors.New("order: order service unavailable")
)
