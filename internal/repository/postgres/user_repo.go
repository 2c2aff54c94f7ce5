package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/domain"

	"github.com/lib/pq"
)

const userColumns = `id, email, full_name, password_hash, salt, role, admin_level, permissions, is_active, last_login, login_count, created_at, updated_at`

// loginCountBuckets fixes the order of the login-count histogram.
var loginCountBuckets = []string{"0", "1-5", "6-20", "21+"}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

// NewPrincipalLoader returns a loader that reads authorization snapshots from the users table.
func NewPrincipalLoader(db *sql.DB) domain.PrincipalLoader {
	return &userRepository{DB: db}
}

// decodeAccess turns stored tokens into typed values. Unknown permission tokens make the
// record unusable for authorization, so they surface as ErrInvalidState.
func decodeAccess(id string, adminLevel sql.NullString, perms pq.StringArray) (domain.AdminLevel, domain.PermissionSet, error) {
	set, err := domain.ParsePermissionSet(perms)
	if err != nil {
		return "", 0, fmt.Errorf("%w: user %s: %v", domain.ErrInvalidState, id, err)
	}
	return domain.AdminLevel(adminLevel.String), set, nil
}

func scanUser(row scanner) (*domain.User, error) {
	u := &domain.User{}
	var role string
	var adminLevel sql.NullString
	var perms pq.StringArray
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Salt, &role, &adminLevel, &perms,
		&u.IsActive, &lastLogin, &u.LoginCount, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.LastLogin = timePtr(lastLogin)
	u.AdminLevel, u.Permissions, err = decodeAccess(u.ID, adminLevel, perms)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (email, full_name, password_hash, salt, role, admin_level, permissions, is_active, login_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		u.Email, u.FullName, u.PasswordHash, u.Salt, string(u.Role), nullString(string(u.AdminLevel)),
		pq.Array(u.Permissions.Tokens()), u.IsActive, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.User, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *userRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET email = $1, full_name = $2, password_hash = $3, salt = $4, updated_at = $5
		WHERE id = $6
	`
	res, err := r.DB.ExecContext(ctx, query, u.Email, u.FullName, u.PasswordHash, u.Salt, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return expectOneRow(res, domain.ErrUserNotFound)
}

func (r *userRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login = $1, login_count = login_count + 1 WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, domain.ErrUserNotFound)
}

// WithAccessTx locks the actor row for share and the target row for update, so the decision
// made by mutate holds until the write commits.
func (r *userRepository) WithAccessTx(ctx context.Context, actorID, targetID string, mutate domain.AccessMutation) (*domain.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var actor *domain.User
	if actorID != targetID {
		actor, err = lockUser(ctx, tx, actorID, "FOR SHARE")
		if err != nil {
			return nil, err
		}
	}
	target, err := lockUser(ctx, tx, targetID, "FOR UPDATE")
	if err != nil {
		return nil, err
	}
	if actor == nil {
		cp := *target
		actor = &cp
	}

	change, err := mutate(actor, target)
	if err != nil {
		return nil, err
	}
	if change.Role != domain.RoleOrganizerAdmin {
		change.AdminLevel = domain.AdminLevelNone
		change.Permissions = 0
	}
	if change == domain.AccessOf(target) {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return target, nil
	}

	query := `
		UPDATE users
		SET role = $1, admin_level = $2, permissions = $3, is_active = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		string(change.Role), nullString(string(change.AdminLevel)), pq.Array(change.Permissions.Tokens()), change.IsActive, target.ID,
	).Scan(&target.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	target.Role = change.Role
	target.AdminLevel = change.AdminLevel
	target.Permissions = change.Permissions
	target.IsActive = change.IsActive
	return target, nil
}

func lockUser(ctx context.Context, tx *sql.Tx, id, lock string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 ` + lock
	u, err := scanUser(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Stats(ctx context.Context, activeSince time.Time) (*domain.UserStats, error) {
	stats := &domain.UserStats{ByRole: make(map[domain.Role]int)}
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE last_login >= $1) FROM users`
	if err := r.DB.QueryRowContext(ctx, query, activeSince).Scan(&stats.Total, &stats.Active); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		stats.ByRole[domain.Role(role)] = n
	}
	return stats, rows.Err()
}

func (r *userRepository) CountActiveBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM users WHERE last_login >= $1 AND last_login <= $2`
	err := r.DB.QueryRowContext(ctx, query, from, to).Scan(&n)
	return n, err
}

func (r *userRepository) LoginCountBuckets(ctx context.Context) ([]domain.LoginCountBucket, error) {
	query := `
		SELECT bucket, COUNT(*) FROM (
			SELECT CASE
				WHEN login_count = 0 THEN '0'
				WHEN login_count <= 5 THEN '1-5'
				WHEN login_count <= 20 THEN '6-20'
				ELSE '21+'
			END AS bucket
			FROM users
		) b
		GROUP BY bucket
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int, len(loginCountBuckets))
	for rows.Next() {
		var bucket string
		var n int
		if err := rows.Scan(&bucket, &n); err != nil {
			return nil, err
		}
		counts[bucket] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.LoginCountBucket, 0, len(loginCountBuckets))
	for _, b := range loginCountBuckets {
		out = append(out, domain.LoginCountBucket{Range: b, Count: counts[b]})
	}
	return out, nil
}

func (r *userRepository) TopActive(ctx context.Context, limit int) ([]domain.UserActivitySummary, error) {
	query := `
		SELECT id, email, full_name, login_count, last_login
		FROM users
		WHERE is_active
		ORDER BY login_count DESC, last_login DESC NULLS LAST
		LIMIT $1
	`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domain.UserActivitySummary, 0, limit)
	for rows.Next() {
		var s domain.UserActivitySummary
		var lastLogin sql.NullTime
		if err := rows.Scan(&s.ID, &s.Email, &s.FullName, &s.LoginCount, &lastLogin); err != nil {
			return nil, err
		}
		s.LastLogin = timePtr(lastLogin)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *userRepository) LoadPrincipal(ctx context.Context, userID string) (domain.Principal, error) {
	query := `SELECT id, role, admin_level, permissions, is_active FROM users WHERE id = $1`
	var p domain.Principal
	var role string
	var adminLevel sql.NullString
	var perms pq.StringArray
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&p.ID, &role, &adminLevel, &perms, &p.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Principal{}, domain.ErrUserNotFound
		}
		return domain.Principal{}, err
	}
	p.Role = domain.Role(role)
	p.AdminLevel, p.Permissions, err = decodeAccess(p.ID, adminLevel, perms)
	if err != nil {
		return domain.Principal{}, err
	}
	return p, nil
}
