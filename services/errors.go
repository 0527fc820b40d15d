package services

import "errors"

// Sentinel errors returned by the services and mapped to HTTP statuses in
// the handlers.
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrForbidden         = errors.New("access forbidden: insufficient permissions")
	ErrInvalidAssignedTo = errors.New("assignedTo must be an array of user IDs")
	ErrInvalidStatus     = errors.New("invalid task status")
	ErrInvalidPriority   = errors.New("invalid task priority")
	ErrEmailTaken        = errors.New("user with email already exists")
)
