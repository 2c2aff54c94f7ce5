package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
)

// User represents a registered account together with its authorization state.
// swagger:model User
type User struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	FullName     string        `json:"full_name"`
	PasswordHash string        `json:"-"`
	Salt         string        `json:"-"`
	Role         Role          `json:"role"`
	AdminLevel   AdminLevel    `json:"admin_level,omitempty"`
	Permissions  PermissionSet `json:"permissions" swaggertype:"array,string"`
	IsActive     bool          `json:"is_active"`
	LastLogin    *time.Time    `json:"last_login,omitempty"`
	LoginCount   int           `json:"login_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewUser returns an active user with the given role and no admin access. ID is set by the repository on create.
func NewUser(email, fullName string, role Role, createdAt time.Time) *User {
	return &User{
		Email:     email,
		FullName:  fullName,
		Role:      role,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// Principal returns the authorization snapshot of u.
func (u *User) Principal() Principal {
	return Principal{
		ID:          u.ID,
		Role:        u.Role,
		AdminLevel:  u.AdminLevel,
		Permissions: u.Permissions,
		Active:      u.IsActive,
	}
}

// AccessChange is the new authorization state computed for a target user.
type AccessChange struct {
	Role        Role
	AdminLevel  AdminLevel
	Permissions PermissionSet
	IsActive    bool
}

// AccessOf returns the current access state of u, to be modified by an AccessMutation.
func AccessOf(u *User) AccessChange {
	return AccessChange{Role: u.Role, AdminLevel: u.AdminLevel, Permissions: u.Permissions, IsActive: u.IsActive}
}

// AccessMutation computes a target's new access from snapshots read inside the write transaction.
// Returning an error aborts the transaction without writing.
type AccessMutation func(actor, target *User) (AccessChange, error)

// UserStats aggregates user counts for the overview endpoints.
type UserStats struct {
	Total  int          `json:"total"`
	Active int          `json:"active"`
	ByRole map[Role]int `json:"by_role"`
}

// LoginCountBucket is one bucket of the login-count histogram.
type LoginCountBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// UserActivitySummary is a short user view used in activity reports.
type UserActivitySummary struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	LoginCount int        `json:"login_count"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenClaims is what an access token asserts about its bearer.
type TokenClaims struct {
	UserID    string
	SessionID string
	Email     string
	Role      Role
}

// TokenIssuer issues signed access tokens.
type TokenIssuer interface {
	Issue(claims TokenClaims, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, params PaginationParams) ([]*User, int, error)
	UpdateProfile(ctx context.Context, user *User) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
	// WithAccessTx re-reads actor and target inside one transaction, lets mutate decide the
	// new access state, and writes it before commit. It returns the updated target.
	WithAccessTx(ctx context.Context, actorID, targetID string, mutate AccessMutation) (*User, error)
	Stats(ctx context.Context, activeSince time.Time) (*UserStats, error)
	CountActiveBetween(ctx context.Context, from, to time.Time) (int, error)
	LoginCountBuckets(ctx context.Context) ([]LoginCountBucket, error)
	TopActive(ctx context.Context, limit int) ([]UserActivitySummary, error)
}

// PrincipalLoader loads the current authorization snapshot of a user.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID string) (Principal, error)
}

// UserCreateInput is the input for creating a user, either by sign-up or by an admin.
type UserCreateInput struct {
	Email       string
	Password    string
	FullName    string
	Role        Role
	AdminLevel  AdminLevel
	Permissions PermissionSet
}

// ProfileUpdate holds the optional fields a user may change on their own account.
type ProfileUpdate struct {
	FullName *string
	Email    *string
	Password *string
}

// AdminAccessUpdate holds the optional admin level and permission changes for a target user.
type AdminAccessUpdate struct {
	AdminLevel  *AdminLevel
	Permissions *PermissionSet
}

// ActionContext identifies who performs a privileged action and from where.
type ActionContext struct {
	Actor     Principal
	IPAddress string
}

// UserService defines the business logic for user accounts and their access.
type UserService interface {
	Create(ctx context.Context, ac ActionContext, in UserCreateInput) (*User, error)
	GetByID(ctx context.Context, actor Principal, id string) (*User, error)
	List(ctx context.Context, actor Principal, params PaginationParams) ([]*User, int, error)
	UpdateProfile(ctx context.Context, actor Principal, in ProfileUpdate) (*User, error)
	ChangeRole(ctx context.Context, ac ActionContext, targetID string, role Role) (*User, error)
	SetStatus(ctx context.Context, ac ActionContext, targetID string, active bool) (*User, error)
	UpdateAdminAccess(ctx context.Context, ac ActionContext, targetID string, in AdminAccessUpdate) (*User, error)
	Stats(ctx context.Context, actor Principal) (*UserStats, error)
}

// AuthService handles sign-up, login and session lifecycle.
type AuthService interface {
	SignUp(ctx context.Context, in UserCreateInput) (*User, error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	Logout(ctx context.Context, userID, sessionID string) error
	LogoutAll(ctx context.Context, userID string) error
	BootstrapSuperuser(ctx context.Context, email, password string) error
}
