package service

import (
	"errors"
)

// Sentinel errors forming the core's error taxonomy. Callers classify
// failures with errors.Is; the API layer maps each class to a stable
// response code.
var (
	// ErrValidation marks malformed input, rejected before any state change.
	ErrValidation = errors.New("invalid argument")

	// ErrNotFound marks a missing referenced account, match or request.
	ErrNotFound = errors.New("not found")

	// ErrPreconditionFailed marks a stale read or already-terminal state.
	// Reactive handlers treat it as a safe no-op, never as a retryable fault.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInsufficientFunds marks a debit that would leave a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrPermissionDenied marks an operation the caller is not allowed to perform.
	ErrPermissionDenied = errors.New("permission denied")
)
