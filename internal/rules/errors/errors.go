package errors

import "errors"

var (
	ErrRuleNotFound = errors.New("circulation rule not found")
)
