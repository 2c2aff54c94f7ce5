package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Controllers map them to HTTP statuses.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyExists    = errors.New("already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidState     = errors.New("invalid principal state")
)

// CapabilitySuperAdmin is the capability reported when an action is reserved to super admins.
const CapabilitySuperAdmin = string(AdminLevelSuper)

// PermissionDeniedError reports the capability the principal was missing.
// Required holds a Permission token, or CapabilitySuperAdmin.
type PermissionDeniedError struct {
	Required string
	Reason   string
}

func (e *PermissionDeniedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("permission denied: %s required (%s)", e.Required, e.Reason)
	}
	return fmt.Sprintf("permission denied: %s required", e.Required)
}

// Is lets callers match any denial with errors.Is(err, ErrForbidden).
func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// Denied returns a PermissionDeniedError for the given permission.
func Denied(p Permission) *PermissionDeniedError {
	return &PermissionDeniedError{Required: string(p)}
}
