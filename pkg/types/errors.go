package types

import "errors"

var (
	ErrRequestNotFound  = errors.New("request not found")
	ErrAddressNotFound  = errors.New("saved address not found")
	ErrCategoryNotFound = errors.New("category not found")
)
