package domain

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Role is the coarse classification of a principal.
type Role string

const (
	RoleUser           Role = "user"
	RoleOrganizerAdmin Role = "admin"
	RoleSponsor        Role = "sponsor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOrganizerAdmin, RoleSponsor:
		return true
	}
	return false
}

// ParseRole normalizes s and returns the matching Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// AdminLevel is the authority tier of an organizer admin. The zero value means "no level".
type AdminLevel string

const (
	AdminLevelNone      AdminLevel = ""
	AdminLevelSuper     AdminLevel = "SUPER_ADMIN"
	AdminLevelAdmin     AdminLevel = "ADMIN"
	AdminLevelModerator AdminLevel = "MODERATOR"
)

// Valid reports whether l is a known, non-empty admin level.
func (l AdminLevel) Valid() bool {
	switch l {
	case AdminLevelSuper, AdminLevelAdmin, AdminLevelModerator:
		return true
	}
	return false
}

// ParseAdminLevel normalizes s and returns the matching AdminLevel.
func ParseAdminLevel(s string) (AdminLevel, error) {
	l := AdminLevel(strings.TrimSpace(strings.ToUpper(s)))
	if !l.Valid() {
		return AdminLevelNone, fmt.Errorf("%w: unknown admin level %q", ErrInvalidInput, s)
	}
	return l, nil
}

// Permission is a fine-grained capability token. Tokens are stored verbatim, so the
// vocabulary may only grow: never rename or remove a value.
type Permission string

const (
	PermissionManageUsers     Permission = "MANAGE_USERS"
	PermissionManageEvents    Permission = "MANAGE_EVENTS"
	PermissionManageSponsors  Permission = "MANAGE_SPONSORS"
	PermissionManageContent   Permission = "MANAGE_CONTENT"
	PermissionViewAnalytics   Permission = "VIEW_ANALYTICS"
	PermissionManageSettings  Permission = "MANAGE_SETTINGS"
	PermissionManageMarketing Permission = "MANAGE_MARKETING"
)

// allPermissions fixes the in-process bit position of each token. Append only.
var allPermissions = []Permission{
	PermissionManageUsers,
	PermissionManageEvents,
	PermissionManageSponsors,
	PermissionManageContent,
	PermissionViewAnalytics,
	PermissionManageSettings,
	PermissionManageMarketing,
}

// AllPermissions returns every known permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

func (p Permission) bit() (PermissionSet, bool) {
	for i, known := range allPermissions {
		if known == p {
			return PermissionSet(1) << uint(i), true
		}
	}
	return 0, false
}

// Valid reports whether p is part of the known vocabulary.
func (p Permission) Valid() bool {
	_, ok := p.bit()
	return ok
}

// ParsePermission normalizes s and returns the matching Permission.
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.TrimSpace(strings.ToUpper(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, s)
	}
	return p, nil
}

// PermissionSet is an immutable set of permissions. The zero value is the empty set.
type PermissionSet uint32

// NewPermissionSet builds a set from the given permissions. Unknown values are ignored.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		if b, ok := p.bit(); ok {
			s |= b
		}
	}
	return s
}

// ParsePermissionSet converts stored or requested tokens into a set. It fails on the first
// unknown token so that a stale vocabulary never silently drops a grant.
func ParsePermissionSet(tokens []string) (PermissionSet, error) {
	var s PermissionSet
	for _, t := range tokens {
		p, err := ParsePermission(t)
		if err != nil {
			return 0, err
		}
		b, _ := p.bit()
		s |= b
	}
	return s, nil
}

// Has reports whether p is a member of the set.
func (s PermissionSet) Has(p Permission) bool {
	b, ok := p.bit()
	return ok && s&b != 0
}

// With returns a copy of the set with p added.
func (s PermissionSet) With(p Permission) PermissionSet {
	b, _ := p.bit()
	return s | b
}

// Without returns a copy of the set with p removed.
func (s PermissionSet) Without(p Permission) PermissionSet {
	b, _ := p.bit()
	return s &^ b
}

// IsEmpty reports whether the set has no members.
func (s PermissionSet) IsEmpty() bool { return s == 0 }

// Len returns the number of members.
func (s PermissionSet) Len() int { return bits.OnesCount32(uint32(s)) }

// Permissions returns the members in declaration order.
func (s PermissionSet) Permissions() []Permission {
	out := make([]Permission, 0, s.Len())
	for _, p := range allPermissions {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Tokens returns the members as sorted string tokens, the persisted representation.
func (s PermissionSet) Tokens() []string {
	out := make([]string, 0, s.Len())
	for _, p := range s.Permissions() {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

func (s PermissionSet) String() string {
	return "[" + strings.Join(s.Tokens(), ",") + "]"
}

// MarshalJSON encodes the set as an array of tokens.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tokens())
}

// UnmarshalJSON decodes an array of tokens, rejecting unknown ones.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	parsed, err := ParsePermissionSet(tokens)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Principal is an immutable snapshot of the acting user's authorization state.
// It is passed by value; authorization decisions never read anything else.
type Principal struct {
	ID          string
	Role        Role
	AdminLevel  AdminLevel
	Permissions PermissionSet
	Active      bool
}
