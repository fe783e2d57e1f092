package services_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"servicestation/internal/models"
	"servicestation/internal/repositories"
	"servicestation/internal/services"
	"servicestation/internal/validation"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testGroupID = 2

// captureMailer records the reset deliveries the auth flow hands out.
type captureMailer struct {
	user  *models.User
	token string
	calls int
}

func (m *captureMailer) DeliverResetEmail(user *models.User, token string) {
	m.user = user
	m.token = token
	m.calls++
}

func discardLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newAuthService(users repositories.UserRepository, mailer services.Mailer) *services.AuthService {
	return services.NewAuthService(
		users,
		services.NewPasswordHasher(bcrypt.MinCost),
		services.NewResetTokenIssuer("test-secret", 0),
		mailer,
		testGroupID,
		discardLog(),
	)
}

func seedUser(t *testing.T, users repositories.UserRepository, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		FirstName:    "First_Name",
		LastName:     "Last_Name",
		Email:        email,
		Phone:        "+442083661177",
		PasswordHash: string(hash),
		Active:       true,
		GroupID:      testGroupID,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestAuthService_Login(t *testing.T) {
	users := repositories.NewMockUserRepository()
	svc := newAuthService(users, &captureMailer{})
	seeded := seedUser(t, users, "email1@gmail.com", "Password1!")

	user, err := svc.Login(context.Background(), "email1@gmail.com", "Password1!")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
	assert.Equal(t, seeded.Email, user.Email)
}

func TestAuthService_Login_Failures(t *testing.T) {
	users := repositories.NewMockUserRepository()
	svc := newAuthService(users, &captureMailer{})
	seedUser(t, users, "email1@gmail.com", "Password1!")

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "email1@gmail.com", "WrongPass1!")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@gmail.com", "Password1!")
		// Identical to the wrong-password error so responses cannot
		// reveal whether the account exists.
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("deactivated account", func(t *testing.T) {
		hash, err := bcrypt.GenerateFromPassword([]byte("Password1!"), bcrypt.MinCost)
		require.NoError(t, err)
		require.NoError(t, users.Create(context.Background(), &models.User{
			Email:        "inactive@gmail.com",
			PasswordHash: string(hash),
			Active:       false,
			GroupID:      testGroupID,
		}))

		_, err = svc.Login(context.Background(), "inactive@gmail.com", "Password1!")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})
}

// brokenUserRepository fails every call with the configured error.
type brokenUserRepository struct {
	err error
}

func (r brokenUserRepository) Create(context.Context, *models.User) error { return r.err }
func (r brokenUserRepository) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, r.err
}
func (r brokenUserRepository) GetByID(context.Context, uint) (*models.User, error) {
	return nil, r.err
}
func (r brokenUserRepository) UpdatePassword(context.Context, uint, string) error { return r.err }

func TestAuthService_Login_StoreFault(t *testing.T) {
	svc := newAuthService(brokenUserRepository{err: errors.New("connection refused")}, &captureMailer{})

	_, err := svc.Login(context.Background(), "email1@gmail.com", "Password1!")
	var fault *services.StoreFault
	require.ErrorAs(t, err, &fault)
	assert.NotErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_Register(t *testing.T) {
	users := repositories.NewMockUserRepository()
	svc := newAuthService(users, &captureMailer{})

	form := &validation.RegisterForm{
		FirstName:     "First_Name",
		LastName:      "Last_Name",
		Email:         "email1@gmail.com",
		Phone:         "442083661177",
		Password:      "Password1!",
		PasswordCheck: "Password1!",
	}
	user, err := svc.Register(context.Background(), form)
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, uint(testGroupID), user.GroupID)
	assert.Equal(t, "+442083661177", user.Phone)
	assert.True(t, user.Active)
	assert.False(t, user.Created.IsZero())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Password1!")))

	stored, err := users.GetByEmail(context.Background(), "email1@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	users := repositories.NewMockUserRepository()
	svc := newAuthService(users, &captureMailer{})
	seedUser(t, users, "email1@gmail.com", "Password1!")

	form := &validation.RegisterForm{
		FirstName:     "First_Name",
		LastName:      "Last_Name",
		Email:         "email1@gmail.com",
		Phone:         "442083661177",
		Password:      "Password1!",
		PasswordCheck: "Password1!",
	}
	_, err := svc.Register(context.Background(), form)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs["email"], "Email already registered")
}

// racingUserRepository reports the email as free but loses the insert race,
// like a concurrent registration hitting the unique index first.
type racingUserRepository struct{}

func (racingUserRepository) Create(context.Context, *models.User) error {
	return repositories.ErrDuplicateEmail
}
func (racingUserRepository) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}
func (racingUserRepository) GetByID(context.Context, uint) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}
func (racingUserRepository) UpdatePassword(context.Context, uint, string) error {
	return repositories.ErrUserNotFound
}

func TestAuthService_Register_InsertRace(t *testing.T) {
	svc := newAuthService(racingUserRepository{}, &captureMailer{})

	form := &validation.RegisterForm{
		FirstName:     "First_Name",
		LastName:      "Last_Name",
		Email:         "email1@gmail.com",
		Phone:         "442083661177",
		Password:      "Password1!",
		PasswordCheck: "Password1!",
	}
	_, err := svc.Register(context.Background(), form)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs["email"], "Email already registered")
}

func TestAuthService_Register_ValidationFailure(t *testing.T) {
	users := repositories.NewMockUserRepository()
	svc := newAuthService(users, &captureMailer{})

	form := &validation.RegisterForm{
		FirstName:     "First_Name",
		LastName:      "Last_Name",
		Email:         "email1@gmail.com",
		Phone:         "442083661177",
		Password:      "password1!",
		PasswordCheck: "password1!",
	}
	_, err := svc.Register(context.Background(), form)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.True(t, errs.Has("password"))

	_, err = users.GetByEmail(context.Background(), "email1@gmail.com")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound, "a rejected form must not reach the store")
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	users := repositories.NewMockUserRepository()
	mailer := &captureMailer{}
	svc := newAuthService(users, mailer)
	user := seedUser(t, users, "email1@gmail.com", "Password1!")

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "email1@gmail.com"))
	require.Equal(t, 1, mailer.calls)
	assert.Equal(t, user.Email, mailer.user.Email)

	issuer := services.NewResetTokenIssuer("test-secret", 0)
	id, ok := issuer.Verify(mailer.token)
	require.True(t, ok, "delivered token must verify")
	assert.Equal(t, user.ID, id)
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	users := repositories.NewMockUserRepository()
	mailer := &captureMailer{}
	svc := newAuthService(users, mailer)

	// Unknown email reports success and sends nothing.
	assert.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@gmail.com"))
	assert.Zero(t, mailer.calls)
}

func TestAuthService_ResetPassword(t *testing.T) {
	users := repositories.NewMockUserRepository()
	svc := newAuthService(users, &captureMailer{})
	user := seedUser(t, users, "email1@gmail.com", "Password1!")

	issuer := services.NewResetTokenIssuer("test-secret", 0)
	token, err := issuer.Issue(user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(context.Background(), token, "NewPassword2!", "NewPassword2!"))

	_, err = svc.Login(context.Background(), "email1@gmail.com", "Password1!")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials, "old password must stop working")
	_, err = svc.Login(context.Background(), "email1@gmail.com", "NewPassword2!")
	assert.NoError(t, err)
}

func TestAuthService_ResetPassword_Failures(t *testing.T) {
	users := repositories.NewMockUserRepository()
	svc := newAuthService(users, &captureMailer{})
	user := seedUser(t, users, "email1@gmail.com", "Password1!")

	issuer := services.NewResetTokenIssuer("test-secret", 0)
	token, err := issuer.Issue(user.ID)
	require.NoError(t, err)

	t.Run("invalid token", func(t *testing.T) {
		err := svc.ResetPassword(context.Background(), "not-a-token", "NewPassword2!", "NewPassword2!")
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		forged, err := services.NewResetTokenIssuer("other-secret", 0).Issue(user.ID)
		require.NoError(t, err)
		assert.ErrorIs(t, svc.ResetPassword(context.Background(), forged, "NewPassword2!", "NewPassword2!"), services.ErrInvalidToken)
	})

	t.Run("weak replacement password", func(t *testing.T) {
		err := svc.ResetPassword(context.Background(), token, "password", "password")
		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.True(t, errs.Has("password"))
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		err := svc.ResetPassword(context.Background(), token, "NewPassword2!", "NewPassword3!")
		var errs validation.Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs["password_check"], "Passwords do not match")
	})

	t.Run("token for a vanished user", func(t *testing.T) {
		ghost, err := issuer.Issue(user.ID + 100)
		require.NoError(t, err)
		assert.ErrorIs(t, svc.ResetPassword(context.Background(), ghost, "NewPassword2!", "NewPassword2!"), services.ErrInvalidToken)
	})
}

func TestAuthService_ResetPassword_StoreFault(t *testing.T) {
	svc := newAuthService(brokenUserRepository{err: errors.New("connection refused")}, &captureMailer{})

	issuer := services.NewResetTokenIssuer("test-secret", 0)
	token, err := issuer.Issue(7)
	require.NoError(t, err)

	resetErr := svc.ResetPassword(context.Background(), token, "NewPassword2!", "NewPassword2!")
	var fault *services.StoreFault
	require.ErrorAs(t, resetErr, &fault)

	// The token is stateless, so a transient fault leaves it usable.
	id, ok := issuer.Verify(token)
	require.True(t, ok)
	assert.Equal(t, uint(7), id)
}
