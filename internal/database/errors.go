package database

import "errors"

var (
	ErrNotFound        = errors.New("item not found")
	ErrConditionFailed = errors.New("conditional check failed")
	ErrTableNotFound   = errors.New("table not found")
	ErrValidation      = errors.New("validation failed")
)
