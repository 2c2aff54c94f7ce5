// Package authz decides whether a principal may exercise a capability.
//
// Every function is a pure function of the principal snapshots it is given: no I/O, no
// shared state. Snapshots that break the role/level/permission invariants are denied.
package authz

import (
	"fmt"

	"eventhub/internal/domain"
)

// Validate checks the data-model invariants of p and returns an error wrapping
// domain.ErrInvalidState when one is broken.
func Validate(p domain.Principal) error {
	if !p.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidState, p.Role)
	}
	if p.Role == domain.RoleOrganizerAdmin {
		if !p.AdminLevel.Valid() {
			return fmt.Errorf("%w: admin without a valid admin level (%q)", domain.ErrInvalidState, p.AdminLevel)
		}
		return nil
	}
	if p.AdminLevel != domain.AdminLevelNone {
		return fmt.Errorf("%w: role %q has admin level %q", domain.ErrInvalidState, p.Role, p.AdminLevel)
	}
	if !p.Permissions.IsEmpty() {
		return fmt.Errorf("%w: role %q holds permissions %s", domain.ErrInvalidState, p.Role, p.Permissions)
	}
	return nil
}

// IsAdmin reports whether p is a valid organizer admin.
func IsAdmin(p domain.Principal) bool {
	return p.Role == domain.RoleOrganizerAdmin && Validate(p) == nil
}

// IsSuperAdmin reports whether p is a valid organizer admin at the super admin level.
func IsSuperAdmin(p domain.Principal) bool {
	return IsAdmin(p) && p.AdminLevel == domain.AdminLevelSuper
}

// HasPermission reports whether p may exercise perm. Non-admins hold nothing; super admins
// hold everything regardless of their explicit set; other admins hold their set.
func HasPermission(p domain.Principal, perm domain.Permission) bool {
	if !IsAdmin(p) {
		return false
	}
	if p.AdminLevel == domain.AdminLevelSuper {
		return true
	}
	return p.Permissions.Has(perm)
}

// Authorize returns nil when p holds perm and a *domain.PermissionDeniedError otherwise.
func Authorize(p domain.Principal, perm domain.Permission) error {
	if HasPermission(p, perm) {
		return nil
	}
	denied := domain.Denied(perm)
	if err := Validate(p); err != nil {
		denied.Reason = err.Error()
	}
	return denied
}

// AuthorizeRoleChange guards changes to target's admin level, including entering or leaving
// the admin role. Only a super admin may perform them.
func AuthorizeRoleChange(actor, target domain.Principal, newLevel domain.AdminLevel) error {
	if newLevel != domain.AdminLevelNone && !newLevel.Valid() {
		return fmt.Errorf("%w: unknown admin level %q", domain.ErrInvalidInput, newLevel)
	}
	if IsSuperAdmin(actor) {
		return nil
	}
	denied := &domain.PermissionDeniedError{Required: domain.CapabilitySuperAdmin, Reason: "admin level changes"}
	if err := Validate(actor); err != nil {
		denied.Reason = err.Error()
	}
	return denied
}

// AuthorizePermissionChange guards replacing target's permission set with newPerms. The actor
// needs MANAGE_USERS, and only a super admin may alter a super admin's grants.
func AuthorizePermissionChange(actor, target domain.Principal, newPerms domain.PermissionSet) error {
	if err := Authorize(actor, domain.PermissionManageUsers); err != nil {
		return err
	}
	if target.Role == domain.RoleOrganizerAdmin && target.AdminLevel == domain.AdminLevelSuper && !IsSuperAdmin(actor) {
		return &domain.PermissionDeniedError{
			Required: domain.CapabilitySuperAdmin,
			Reason:   fmt.Sprintf("target is a super admin (requested %s)", newPerms),
		}
	}
	return nil
}
