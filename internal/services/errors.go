package services

import "errors"

var (
	// ErrClientNotFound aborts invoice creation when the referenced client
	// does not exist under the calling user.
	ErrClientNotFound = errors.New("client not found")
	// ErrLineItemsRequired is returned when a create request carries no
	// line items.
	ErrLineItemsRequired = errors.New("at least one line item is required")
	// ErrEmailTaken is returned on signup with an already registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
