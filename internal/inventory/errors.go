package inventory

import "errors"

var (
	ErrNotFound          = errors.New("inventory item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrAlreadyCompleted  = errors.New("batch is not pending")
	ErrInvalidTransition = errors.New("invalid notification status transition")
)
