package storage

import "errors"

// Storage error constants
var (
	// ErrAlertNotFound is returned when an alert is not found
	ErrAlertNotFound = errors.New("alert not found")

	// ErrDuplicateAlert is returned when inserting an alert whose id already exists
	ErrDuplicateAlert = errors.New("alert already exists")

	// ErrInvalidOutcome is returned when a dispatch outcome is neither sent nor failed
	ErrInvalidOutcome = errors.New("invalid dispatch outcome")

	// ErrDatabaseClosed is returned when attempting to use a closed database connection
	ErrDatabaseClosed = errors.New("database is closed")
)
