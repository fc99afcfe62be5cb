package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/shopworks/storeapi/internal/logging"
	"github.com/shopworks/storeapi/internal/token"
	"github.com/shopworks/storeapi/internal/user"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrBadCredentials         = errors.New("invalid email or password")
	ErrEmailNotConfirmed      = errors.New("email not confirmed, please check your inbox")
	ErrEmailAlreadyRegistered = errors.New("email already registered")

	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
)

// UserStore is the persistence collaborator. The service never touches SQL.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, email, passwordHash string) (*user.User, error)
	MarkConfirmed(ctx context.Context, email string) error
}

// EmailSender delivers the out-of-band confirmation message.
type EmailSender interface {
	SendConfirmationEmail(ctx context.Context, toEmail, confirmationToken string) error
}

// Service orchestrates credential checks, registration, and confirmation.
type Service struct {
	users    UserStore
	hasher   PasswordHasher
	issuer   *token.Issuer
	verifier *token.Verifier
	email    EmailSender
	logger   *logging.Logger
}

func NewService(
	users UserStore,
	hasher PasswordHasher,
	issuer *token.Issuer,
	verifier *token.Verifier,
	email EmailSender,
	logger *logging.Logger,
) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		issuer:   issuer,
		verifier: verifier,
		email:    email,
		logger:   logger,
	}
}

// Register creates a new unconfirmed account and sends a confirmation email.
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyRegistered
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The unique index on email is the real guard against a concurrent
	// duplicate registration slipping past the check above.
	newUser, err := s.users.Create(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	confirmationToken, err := s.issuer.ConfirmationToken(email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue confirmation token: %w", err)
	}

	// Send the confirmation email without blocking registration. A failed
	// send is logged; the user can re-register once the account expires or
	// ask for support.
	go func() {
		emailCtx := context.Background()
		if err := s.email.SendConfirmationEmail(emailCtx, email, confirmationToken); err != nil {
			s.logger.Warn("failed to send confirmation email", "email", email, "error", err)
		}
	}()

	return newUser, nil
}

// Authenticate checks credentials and confirmation status, returning the
// authenticated user. Each failure mode is distinguishable.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, existing.PasswordHash) {
		return nil, ErrBadCredentials
	}

	if !existing.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	return existing, nil
}

// Login authenticates and issues an access token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	authenticated, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}

	accessToken, err := s.issuer.AccessToken(authenticated.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	return accessToken, nil
}

// GetCurrentUser resolves an access token to the account it identifies.
// Token failures (expired, invalid, wrong type) propagate from the verifier;
// a valid token whose account no longer exists reports ErrUserNotFound.
func (s *Service) GetCurrentUser(ctx context.Context, accessToken string) (*user.User, error) {
	subject, err := s.verifier.ExtractSubject(accessToken, token.TypeAccess)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return existing, nil
}

// ConfirmEmail redeems a confirmation token. Redemption is idempotent:
// confirming an already-confirmed account succeeds.
func (s *Service) ConfirmEmail(ctx context.Context, confirmationToken string) error {
	subject, err := s.verifier.ExtractSubject(confirmationToken, token.TypeConfirmation)
	if err != nil {
		return err
	}

	if err := s.users.MarkConfirmed(ctx, subject); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to confirm user: %w", err)
	}

	return nil
}
