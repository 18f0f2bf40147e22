package repository

import "errors"

var (
	ErrNavigationTimeout = errors.New("navigation timed out")
	ErrNavigationFailed  = errors.New("navigation failed")
	ErrQueueEmpty        = errors.New("queue is empty")
	ErrNotFound          = errors.New("not found")
)
