package errors

import "errors"

var (
	ErrPatronNotFound = errors.New("patron not found")

	ErrTransactionNotFound = errors.New("transaction not found")
)
