package domain

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventClosed   = errors.New("event closed")
	ErrEventInPast   = errors.New("event in past")

	ErrAlreadyRegistered = errors.New("already registered or already cancelled")
	ErrNotRegistered     = errors.New("not registered")
	ErrAlreadyCancelled  = errors.New("registration already cancelled")

	ErrNotificationNotFound = errors.New("notification not found")

	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")

	ErrCacheMiss = errors.New("cache miss")
)
