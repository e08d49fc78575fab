package repository

import "errors"

var (
	// ErrInvalidRecord indicates a record that cannot be stored
	ErrInvalidRecord = errors.New("invalid analysis record")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
