package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"eventhub/internal/authz"
	"eventhub/internal/domain"
)

const (
	minPasswordLen = 8
	activeWindow   = 30 * 24 * time.Hour
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return "", fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	return email, nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}
	return nil
}

type userService struct {
	users    domain.UserRepository
	sessions domain.SessionStore
	hasher   domain.PasswordHasher
	audit    *AuditTrail
	logger   *slog.Logger
	now      func() time.Time
}

// NewUserService creates a UserService. Access changes run through users.WithAccessTx so the
// authorization checks see the same rows the write replaces.
func NewUserService(users domain.UserRepository, sessions domain.SessionStore, hasher domain.PasswordHasher, audit *AuditTrail, logger *slog.Logger) domain.UserService {
	return &userService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *userService) Create(ctx context.Context, ac domain.ActionContext, in domain.UserCreateInput) (*domain.User, error) {
	if err := authz.Authorize(ac.Actor, domain.PermissionManageUsers); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, in.Role)
	}
	if in.Role == domain.RoleOrganizerAdmin {
		if in.AdminLevel == domain.AdminLevelNone {
			in.AdminLevel = domain.AdminLevelModerator
		}
		if err := authz.AuthorizeRoleChange(ac.Actor, domain.Principal{}, in.AdminLevel); err != nil {
			return nil, err
		}
	} else if in.AdminLevel != domain.AdminLevelNone || !in.Permissions.IsEmpty() {
		return nil, fmt.Errorf("%w: only admins carry an admin level or permissions", domain.ErrInvalidInput)
	}

	user, err := newAccount(s.hasher, in, s.now().UTC())
	if err != nil {
		return nil, err
	}
	user.AdminLevel = in.AdminLevel
	user.Permissions = in.Permissions
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Record(ctx, ac, domain.AuditActionCreateUser, domain.EntityUser, user.ID, map[string]any{
		"email":       user.Email,
		"role":        user.Role,
		"admin_level": user.AdminLevel,
		"permissions": user.Permissions.Tokens(),
	})
	return user, nil
}

// newAccount validates the credentials in in and returns an unsaved user with a hashed password.
func newAccount(hasher domain.PasswordHasher, in domain.UserCreateInput, at time.Time) (*domain.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	user := domain.NewUser(email, strings.TrimSpace(in.FullName), in.Role, at)
	if err := setPassword(hasher, user, in.Password); err != nil {
		return nil, err
	}
	return user, nil
}

func setPassword(hasher domain.PasswordHasher, user *domain.User, password string) error {
	salt, err := hasher.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(salt, password)
	if err != nil {
		return err
	}
	user.Salt = salt
	user.PasswordHash = hash
	return nil
}

func (s *userService) GetByID(ctx context.Context, actor domain.Principal, id string) (*domain.User, error) {
	if actor.ID != id {
		if err := authz.Authorize(actor, domain.PermissionManageUsers); err != nil {
			return nil, err
		}
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, actor domain.Principal, params domain.PaginationParams) ([]*domain.User, int, error) {
	if err := authz.Authorize(actor, domain.PermissionManageUsers); err != nil {
		return nil, 0, err
	}
	users, total, err := s.users.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor domain.Principal, in domain.ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Password != nil {
		if err := checkPassword(*in.Password); err != nil {
			return nil, err
		}
		if err := setPassword(s.hasher, user, *in.Password); err != nil {
			return nil, err
		}
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// activeActor returns the actor's fresh principal, failing closed when it was deactivated meanwhile.
func activeActor(actor *domain.User) (domain.Principal, error) {
	p := actor.Principal()
	if !p.Active {
		return p, fmt.Errorf("%w: acting user was deactivated", domain.ErrInactiveUser)
	}
	return p, nil
}

func (s *userService) ChangeRole(ctx context.Context, ac domain.ActionContext, targetID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	var from domain.Role
	updated, err := s.users.WithAccessTx(ctx, ac.Actor.ID, targetID, func(actor, target *domain.User) (domain.AccessChange, error) {
		change := domain.AccessOf(target)
		ap, err := activeActor(actor)
		if err != nil {
			return change, err
		}
		if err := authz.Authorize(ap, domain.PermissionManageUsers); err != nil {
			return change, err
		}
		from = target.Role
		if from == role {
			return change, nil
		}
		switch {
		case role == domain.RoleOrganizerAdmin:
			if err := authz.AuthorizeRoleChange(ap, target.Principal(), domain.AdminLevelModerator); err != nil {
				return change, err
			}
			change.AdminLevel = domain.AdminLevelModerator
		case from == domain.RoleOrganizerAdmin:
			if err := authz.AuthorizeRoleChange(ap, target.Principal(), domain.AdminLevelNone); err != nil {
				return change, err
			}
			change.AdminLevel = domain.AdminLevelNone
		}
		change.Role = role
		change.Permissions = 0
		return change, nil
	})
	if err != nil {
		return nil, s.accessErr("change role", err)
	}
	if from != role {
		s.audit.Record(ctx, ac, domain.AuditActionUpdateRole, domain.EntityUser, targetID, map[string]any{
			"from": from,
			"to":   role,
		})
	}
	return updated, nil
}

func (s *userService) SetStatus(ctx context.Context, ac domain.ActionContext, targetID string, active bool) (*domain.User, error) {
	var was bool
	updated, err := s.users.WithAccessTx(ctx, ac.Actor.ID, targetID, func(actor, target *domain.User) (domain.AccessChange, error) {
		change := domain.AccessOf(target)
		ap, err := activeActor(actor)
		if err != nil {
			return change, err
		}
		if err := authz.Authorize(ap, domain.PermissionManageUsers); err != nil {
			return change, err
		}
		tp := target.Principal()
		if authz.IsSuperAdmin(tp) && !authz.IsSuperAdmin(ap) {
			return change, &domain.PermissionDeniedError{Required: domain.CapabilitySuperAdmin, Reason: "target is a super admin"}
		}
		if actor.ID == target.ID && !active {
			return change, fmt.Errorf("%w: cannot deactivate your own account", domain.ErrInvalidInput)
		}
		was = target.IsActive
		change.IsActive = active
		return change, nil
	})
	if err != nil {
		return nil, s.accessErr("set status", err)
	}
	if was == active {
		return updated, nil
	}
	s.audit.Record(ctx, ac, domain.AuditActionUpdateStatus, domain.EntityUser, targetID, map[string]any{
		"is_active": active,
	})
	// RequireAuth rejects inactive users, so leftover sessions are unusable.
	if !active {
		if err := s.sessions.DeleteAllForUser(ctx, targetID); err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke sessions of deactivated user", "user_id", targetID, "err", err)
		}
	}
	return updated, nil
}

func (s *userService) UpdateAdminAccess(ctx context.Context, ac domain.ActionContext, targetID string, in domain.AdminAccessUpdate) (*domain.User, error) {
	if in.AdminLevel == nil && in.Permissions == nil {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}
	if in.AdminLevel != nil && !in.AdminLevel.Valid() {
		return nil, fmt.Errorf("%w: unknown admin level %q", domain.ErrInvalidInput, *in.AdminLevel)
	}

	var before domain.AccessChange
	updated, err := s.users.WithAccessTx(ctx, ac.Actor.ID, targetID, func(actor, target *domain.User) (domain.AccessChange, error) {
		before = domain.AccessOf(target)
		change := before
		ap, err := activeActor(actor)
		if err != nil {
			return change, err
		}
		if target.Role != domain.RoleOrganizerAdmin {
			return change, fmt.Errorf("%w: admin access applies to admins only", domain.ErrInvalidInput)
		}
		tp := target.Principal()
		if in.AdminLevel != nil && *in.AdminLevel != target.AdminLevel {
			if err := authz.AuthorizeRoleChange(ap, tp, *in.AdminLevel); err != nil {
				return change, err
			}
			change.AdminLevel = *in.AdminLevel
		}
		if in.Permissions != nil && *in.Permissions != target.Permissions {
			if err := authz.AuthorizePermissionChange(ap, tp, *in.Permissions); err != nil {
				return change, err
			}
			change.Permissions = *in.Permissions
		}
		return change, nil
	})
	if err != nil {
		return nil, s.accessErr("update admin access", err)
	}

	if updated.AdminLevel != before.AdminLevel {
		s.audit.Record(ctx, ac, domain.AuditActionUpdateAdminLevel, domain.EntityUser, targetID, map[string]any{
			"from": before.AdminLevel,
			"to":   updated.AdminLevel,
		})
	}
	if updated.Permissions != before.Permissions {
		s.audit.Record(ctx, ac, domain.AuditActionUpdatePermissions, domain.EntityUser, targetID, map[string]any{
			"from":        before.Permissions.Tokens(),
			"permissions": updated.Permissions.Tokens(),
		})
	}
	return updated, nil
}

func (s *userService) Stats(ctx context.Context, actor domain.Principal) (*domain.UserStats, error) {
	if err := authz.Authorize(actor, domain.PermissionManageUsers); err != nil {
		return nil, err
	}
	stats, err := s.users.Stats(ctx, s.now().Add(-activeWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	return stats, nil
}

// accessErr passes domain errors through and wraps the rest.
func (s *userService) accessErr(op string, err error) error {
	for _, known := range []error{domain.ErrForbidden, domain.ErrInactiveUser, domain.ErrUserNotFound, domain.ErrInvalidInput, domain.ErrInvalidState} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
