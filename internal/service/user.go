package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/shawnhank/nomnomlog-sub000/internal/auth"
	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/internal/repository"
	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
	"github.com/shawnhank/nomnomlog-sub000/pkg/pagination"
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// TokenIssuer signs a session token for a persisted user.
type TokenIssuer interface {
	Issue(u *domain.User) (string, error)
}

// UserEvents publishes account lifecycle events.
type UserEvents interface {
	PublishUserRegistered(ctx context.Context, u *domain.User) error
	PublishUserUpdated(ctx context.Context, u *domain.User) error
	PublishUserLoggedOut(ctx context.Context, userID string) error
}

// UserService implements signup, login, profile, password and logout.
type UserService struct {
	users  repository.UserRepository
	ledger repository.RevocationLedger
	tokens TokenIssuer
	events UserEvents
	logger *slog.Logger

	cost      int
	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService creates a new user service hashing with bcrypt.DefaultCost.
func NewUserService(
	users repository.UserRepository,
	ledger repository.RevocationLedger,
	tokens TokenIssuer,
	events UserEvents,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:  users,
		ledger: ledger,
		tokens: tokens,
		events: events,
		logger: logger,
		cost:   bcrypt.DefaultCost,
	}
}

// WithPasswordCost overrides the bcrypt work factor.
func (s *UserService) WithPasswordCost(cost int) *UserService {
	s.cost = cost
	return s
}

// SignupInput holds the parameters for creating an account.
type SignupInput struct {
	Email    string
	FullName string
	Password string
}

// UpdateProfileInput holds the optional profile changes.
type UpdateProfileInput struct {
	Email    *string
	FullName *string
}

// Signup creates an account and returns a token for it. A taken email fails
// with DuplicateCredential and creates nothing.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*domain.User, string, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, "", apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, "", err
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, "", apperrors.DuplicateCredential()
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	if err := s.events.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user signed up", slog.String("user_id", user.ID))

	return user, token, nil
}

// Login checks the credentials and returns a fresh token. Unknown emails
// and wrong passwords fail identically with InvalidCredential.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", apperrors.InvalidCredential()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", fmt.Errorf("get user by email: %w", err)
		}
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, "", apperrors.InvalidCredential()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.InvalidCredential()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return user, token, nil
}

// GetProfile returns the user with the given ID.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the given changes and returns a token carrying the
// updated snapshot. Earlier tokens stay valid until they expire.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, string, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	if input.Email != nil {
		email := domain.NormalizeEmail(*input.Email)
		if email == "" {
			return nil, "", apperrors.InvalidInput("email must not be empty")
		}
		user.Email = email
	}
	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, "", apperrors.DuplicateCredential()
		}
		return nil, "", fmt.Errorf("update user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	if err := s.events.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return user, token, nil
}

// ChangePassword replaces the password after proving the current one. It
// does not revoke tokens issued before the change.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.InvalidInput("current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", userID))
	return nil
}

// Logout records token in the revocation ledger until expiresAt. Logging
// out an already revoked token succeeds.
func (s *UserService) Logout(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if token == "" {
		return apperrors.Unauthorized("no session token")
	}

	err := s.ledger.Revoke(ctx, &domain.RevokedToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return apperrors.ServiceUnavailable("could not end session", err)
	}
	auth.TokensRevoked.Inc()

	if err := s.events.PublishUserLoggedOut(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.logged_out event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))
	return nil
}

// ListUsers returns a page of all accounts for administrators.
func (s *UserService) ListUsers(ctx context.Context, p pagination.Params) (pagination.Result[domain.User], error) {
	users, total, err := s.users.List(ctx, p.Offset(), p.PerPage)
	if err != nil {
		return pagination.Result[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pagination.NewResult(users, total, p), nil
}

// EnsureAdmin creates an administrator with the given credentials unless an
// account with that email already exists. It reports whether it created one.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, fullName string) (bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return false, apperrors.InvalidInput("admin email is required")
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	if err := validatePassword(password); err != nil {
		return false, err
	}
	hash, err := s.hash(password)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	admin := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			// Another instance won the race.
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}

	s.logger.InfoContext(ctx, "admin account created", slog.String("user_id", admin.ID))
	return true, nil
}

func (s *UserService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("nomnomlog-timing-pad"), s.cost)
	})
	return s.dummyHash
}

func validatePassword(password string) error {
	if len(password) < domain.MinPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", domain.MinPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	if strings.TrimSpace(password) == "" {
		return apperrors.InvalidInput("password must not be blank")
	}
	return nil
}
