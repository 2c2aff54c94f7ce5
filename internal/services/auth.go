package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/domain"
)

type authService struct {
	users       domain.UserRepository
	sessions    domain.SessionStore
	hasher      domain.PasswordHasher
	tokens      domain.TokenIssuer
	email       domain.EmailService
	logger      *slog.Logger
	tokenExpiry time.Duration
	sessionTTL  time.Duration
	now         func() time.Time
}

// NewAuthService creates an AuthService. Each login opens a session that lives for sessionTTL
// (tokenExpiry when zero); a token stops working once its session is gone. email may be nil.
func NewAuthService(users domain.UserRepository, sessions domain.SessionStore, hasher domain.PasswordHasher, tokens domain.TokenIssuer, email domain.EmailService, logger *slog.Logger, tokenExpiry, sessionTTL time.Duration) domain.AuthService {
	if sessionTTL <= 0 {
		sessionTTL = tokenExpiry
	}
	return &authService{
		users:       users,
		sessions:    sessions,
		hasher:      hasher,
		tokens:      tokens,
		email:       email,
		logger:      logger,
		tokenExpiry: tokenExpiry,
		sessionTTL:  sessionTTL,
		now:         time.Now,
	}
}

func (s *authService) SignUp(ctx context.Context, in domain.UserCreateInput) (*domain.User, error) {
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if in.Role != domain.RoleUser && in.Role != domain.RoleSponsor {
		return nil, fmt.Errorf("%w: role must be %q or %q", domain.ErrInvalidInput, domain.RoleUser, domain.RoleSponsor)
	}
	user, err := newAccount(s.hasher, domain.UserCreateInput{
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
		Role:     in.Role,
	}, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.email != nil {
		data := &domain.WelcomeMessageEmailData{Email: user.Email, FullName: user.FullName, Role: user.Role}
		if err := s.email.SendWelcomeMessage(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "welcome email failed", "user_id", user.ID, "err", err)
		}
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, domain.ErrInactiveUser
	}

	session, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return "", nil, fmt.Errorf("%w: create session: %w", domain.ErrStoreUnavailable, err)
	}
	token, err := s.tokens.Issue(domain.TokenClaims{
		UserID:    user.ID,
		SessionID: session.ID,
		Email:     user.Email,
		Role:      user.Role,
	}, s.tokenExpiry)
	if err != nil {
		_ = s.sessions.Delete(ctx, user.ID, session.ID)
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	now := s.now().UTC()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		s.logger.WarnContext(ctx, "record login failed", "user_id", user.ID, "err", err)
	} else {
		user.LastLogin = &now
		user.LoginCount++
	}
	return token, user, nil
}

func (s *authService) Logout(ctx context.Context, userID, sessionID string) error {
	if err := s.sessions.Delete(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *authService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// BootstrapSuperuser creates the first super admin unless email is empty or already registered.
func (s *authService) BootstrapSuperuser(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	_, err = s.users.GetByEmail(ctx, normalized)
	if err == nil {
		s.logger.InfoContext(ctx, "superuser already present", "email", normalized)
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("failed to look up superuser: %w", err)
	}

	user, err := newAccount(s.hasher, domain.UserCreateInput{
		Email:    normalized,
		Password: password,
		FullName: "Super Admin",
		Role:     domain.RoleOrganizerAdmin,
	}, s.now().UTC())
	if err != nil {
		return err
	}
	user.AdminLevel = domain.AdminLevelSuper
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil
		}
		return fmt.Errorf("failed to create superuser: %w", err)
	}
	s.logger.InfoContext(ctx, "superuser created", "email", normalized, "user_id", user.ID)
	return nil
}
