package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrProviderFailure = errors.New("provider failure")
	ErrTooManyBatches  = errors.New("too many running batches")
)
