package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicestation/internal/models"
	"servicestation/internal/repositories"
	"servicestation/internal/validation"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so a response never reveals which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken covers malformed, tampered and expired reset tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// StoreFault wraps a persistence-layer failure. Flows surface it to the
// caller as a generic transient error and never retry on their own; the user
// resubmits.
type StoreFault struct {
	Op  string
	Err error
}

func (f *StoreFault) Error() string {
	return fmt.Sprintf("store fault during %s: %v", f.Op, f.Err)
}

func (f *StoreFault) Unwrap() error { return f.Err }

// Mailer delivers password reset instructions. Delivery is fire-and-forget
// from the auth flow's perspective: failures stay inside the mailer.
type Mailer interface {
	DeliverResetEmail(user *models.User, token string)
}

// dummyPasswordHash is verified against when login hits an unknown email, so
// that path costs the same as a wrong password. The comparison result is
// always discarded.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthService orchestrates the login, registration and password reset flows.
type AuthService struct {
	users          repositories.UserRepository
	validator      *validation.Validator
	hasher         *PasswordHasher
	tokens         *ResetTokenIssuer
	mailer         Mailer
	defaultGroupID uint
	log            *logrus.Entry
}

// NewAuthService creates a new AuthService. defaultGroupID is the group
// assigned to every new registration.
func NewAuthService(
	users repositories.UserRepository,
	hasher *PasswordHasher,
	tokens *ResetTokenIssuer,
	mailer Mailer,
	defaultGroupID uint,
	log *logrus.Entry,
) *AuthService {
	return &AuthService{
		users:          users,
		validator:      validation.NewValidator(users),
		hasher:         hasher,
		tokens:         tokens,
		mailer:         mailer,
		defaultGroupID: defaultGroupID,
		log:            log,
	}
}

// Validator exposes the form validator sharing this service's repository.
func (s *AuthService) Validator() *validation.Validator {
	return s.validator
}

// Login authenticates a user by email and password. Unknown email, wrong
// password and a deactivated account all return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.hasher.Verify(password, dummyPasswordHash)
			return nil, ErrInvalidCredentials
		}
		s.log.WithError(err).WithField("email", email).Error("DB error during login lookup")
		return nil, &StoreFault{Op: "login lookup", Err: err}
	}
	if !user.Active || !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	s.log.WithField("email", user.Email).Info("user logged in")
	return user, nil
}

// Register validates the form, creates the user with a freshly hashed
// password and the default group, and returns the persisted record. The
// insert is a single statement; a lost uniqueness race surfaces as the same
// field error the validator's pre-check produces.
func (s *AuthService) Register(ctx context.Context, form *validation.RegisterForm) (*models.User, error) {
	if errs := s.validator.ValidateRegister(ctx, form); errs != nil {
		return nil, errs
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		Phone:        form.Phone,
		PasswordHash: hash,
		Active:       true,
		Created:      time.Now(),
		GroupID:      s.defaultGroupID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, validation.Errors{"email": {"Email already registered"}}
		}
		s.log.WithError(err).WithField("email", user.Email).Error("DB error during registration")
		return nil, &StoreFault{Op: "register insert", Err: err}
	}
	s.log.WithField("email", user.Email).Info("user registered")
	return user, nil
}

// RequestPasswordReset issues a reset token and hands it to the mailer. An
// unknown email is logged but reported as success, so the response never
// confirms whether an account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			s.log.WithField("email", email).Warn("password reset requested for unknown email")
			return nil
		}
		s.log.WithError(err).WithField("email", email).Error("DB error during reset request")
		return &StoreFault{Op: "reset request lookup", Err: err}
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return err
	}
	s.mailer.DeliverResetEmail(user, token)
	s.log.WithField("email", user.Email).Warn("password reset requested")
	return nil
}

// ResetPassword verifies the token, validates the new password and replaces
// the stored hash. A store fault leaves the token untouched, so the user can
// retry with it until it expires. No session is established here.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, passwordCheck string) error {
	userID, ok := s.tokens.Verify(token)
	if !ok {
		s.log.Warn("failed password reset attempt: invalid token")
		return ErrInvalidToken
	}

	form := &validation.ResetPasswordForm{Password: password, PasswordCheck: passwordCheck}
	if errs := s.validator.ValidateResetPassword(form); errs != nil {
		return errs
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrInvalidToken
		}
		s.log.WithError(err).Error("DB error during password reset lookup")
		return &StoreFault{Op: "reset lookup", Err: err}
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrInvalidToken
		}
		s.log.WithError(err).WithField("email", user.Email).Error("DB error during password update")
		return &StoreFault{Op: "password update", Err: err}
	}
	s.log.WithField("email", user.Email).Info("user changed password")
	return nil
}
