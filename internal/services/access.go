package services

import (
	"errors"
	"fmt"

	"eventhub/internal/authz"
	"eventhub/internal/domain"
)

// ownerOr lets the owner through and otherwise requires perm. It reports whether access was
// granted through perm, which is the path that gets audited.
func ownerOr(actor domain.Principal, ownerID string, perm domain.Permission) (bool, error) {
	if ownerID != "" && ownerID == actor.ID {
		return false, nil
	}
	if err := authz.Authorize(actor, perm); err != nil {
		return false, err
	}
	return true, nil
}

// notFoundOr passes domain.ErrNotFound through and wraps anything else with msg.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
