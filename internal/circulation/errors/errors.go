package errors

import "errors"

var (
	ErrItemNotFound = errors.New("item not found")

	ErrLoanNotFound = errors.New("loan not found")

	ErrNoOpenLoan = errors.New("item has no open loan")
)
