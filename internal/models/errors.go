package models

import "errors"

var (
	ErrUnauthenticated    = errors.New("no user is signed in")
	ErrUnavailable        = errors.New("collaborator unavailable")
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("amount must be a number with at most two decimal places")
	ErrInvalidType        = errors.New("type must be income or expense")
	ErrInvalidCategory    = errors.New("category is not valid for this type")
	ErrInvalidDescription = errors.New("description must not be empty")
	ErrInvalidBudget      = errors.New("budget must be a non-negative number with at most two decimal places")
)
