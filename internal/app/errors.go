package service

import "errors"

var (
	// ErrBackpressure means the fact queue is full; the fact was not accepted.
	ErrBackpressure = errors.New("fact queue is full")

	// ErrNotStarted means the service has not been started or was stopped.
	ErrNotStarted = errors.New("service not started")
)
