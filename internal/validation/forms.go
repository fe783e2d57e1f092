package validation

import (
	"context"
	"errors"
	"strings"

	"servicestation/internal/repositories"

	"github.com/nyaruka/phonenumbers"
)

// LoginForm carries the login flow input.
type LoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Remember bool   `json:"remember" form:"remember"`
}

// RegisterForm carries the registration flow input. Phone is rewritten to
// E.164 form by a successful validation.
type RegisterForm struct {
	FirstName     string `json:"first_name" form:"first_name"`
	LastName      string `json:"last_name" form:"last_name"`
	Email         string `json:"email" form:"email"`
	Phone         string `json:"phone" form:"phone"`
	Password      string `json:"password" form:"password"`
	PasswordCheck string `json:"password_check" form:"password_check"`
}

// ResetRequestForm carries the reset-request flow input.
type ResetRequestForm struct {
	Email string `json:"email" form:"email"`
}

// ResetPasswordForm carries the reset-confirm flow input.
type ResetPasswordForm struct {
	Password      string `json:"password" form:"password"`
	PasswordCheck string `json:"password_check" form:"password_check"`
}

// Validator evaluates form rules. The user repository backs the registration
// uniqueness pre-check; the database unique index stays authoritative.
type Validator struct {
	users repositories.UserRepository
}

// NewValidator creates a new Validator.
func NewValidator(users repositories.UserRepository) *Validator {
	return &Validator{users: users}
}

// ValidateLogin checks the login form. Credential correctness is the auth
// flow's concern; only presence and email shape are checked here.
func (v *Validator) ValidateLogin(form *LoginForm) Errors {
	form.Email = strings.TrimSpace(form.Email)
	form.Password = strings.TrimSpace(form.Password)

	return Check(
		Field{Name: "email", Value: form.Email, Rules: []Rule{Required(), EmailSyntax(), Length(5, 100)}},
		Field{Name: "password", Value: form.Password, Rules: []Rule{Required()}},
	)
}

// ValidateRegister checks the registration form. Syntactic rules run first
// for every field; the cross-cutting checks (phone parsing, password
// confirmation, email uniqueness) run only for fields whose syntactic rules
// passed, and fail closed on any library or store error.
func (v *Validator) ValidateRegister(ctx context.Context, form *RegisterForm) Errors {
	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Password = strings.TrimSpace(form.Password)
	form.PasswordCheck = strings.TrimSpace(form.PasswordCheck)

	errs := Check(
		Field{Name: "first_name", Value: form.FirstName, Rules: []Rule{Required(), Length(1, 50)}},
		Field{Name: "last_name", Value: form.LastName, Rules: []Rule{Required(), Length(1, 50)}},
		Field{Name: "email", Value: form.Email, Rules: []Rule{Required(), EmailSyntax(), Length(5, 100)}},
		Field{Name: "phone", Value: form.Phone, Rules: []Rule{Required(), Length(9, 20)}},
		Field{Name: "password", Value: form.Password, Rules: []Rule{Required(), Length(8, 32), PasswordComplexity()}},
		Field{Name: "password_check", Value: form.PasswordCheck, Rules: []Rule{Required(), Length(8, 32)}},
	)
	if errs == nil {
		errs = make(Errors)
	}

	if !errs.Has("phone") {
		if normalized, ok := normalizePhone(form.Phone); ok {
			form.Phone = normalized
		} else {
			errs.Add("phone", "Invalid phone number")
		}
	}

	if !errs.Has("password") && !errs.Has("password_check") && form.Password != form.PasswordCheck {
		errs.Add("password_check", "Passwords do not match")
	}

	if !errs.Has("email") {
		if msg := v.checkEmailFree(ctx, form.Email); msg != "" {
			errs.Add("email", msg)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateResetRequest checks the reset-request form.
func (v *Validator) ValidateResetRequest(form *ResetRequestForm) Errors {
	form.Email = strings.TrimSpace(form.Email)

	return Check(
		Field{Name: "email", Value: form.Email, Rules: []Rule{Required(), EmailSyntax(), Length(5, 100)}},
	)
}

// ValidateResetPassword checks the reset-confirm form.
func (v *Validator) ValidateResetPassword(form *ResetPasswordForm) Errors {
	form.Password = strings.TrimSpace(form.Password)
	form.PasswordCheck = strings.TrimSpace(form.PasswordCheck)

	errs := Check(
		Field{Name: "password", Value: form.Password, Rules: []Rule{Required(), Length(8, 32), PasswordComplexity()}},
		Field{Name: "password_check", Value: form.PasswordCheck, Rules: []Rule{Required(), Length(8, 32)}},
	)
	if errs == nil {
		errs = make(Errors)
	}
	if !errs.Has("password") && !errs.Has("password_check") && form.Password != form.PasswordCheck {
		errs.Add("password_check", "Passwords do not match")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// normalizePhone parses a raw phone number, prepending '+' when missing, and
// returns the E.164 form. Parse failures and invalid numbers report !ok.
func normalizePhone(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "+") {
		raw = "+" + raw
	}
	num, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

// checkEmailFree is the registration uniqueness fast path. A store fault
// fails closed: the email is reported unavailable rather than escalating to
// a system error, and the insert's unique index has the final word anyway.
func (v *Validator) checkEmailFree(ctx context.Context, email string) string {
	_, err := v.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return "Email already registered"
	case errors.Is(err, repositories.ErrUserNotFound):
		return ""
	default:
		return "Email could not be verified, try again"
	}
}
