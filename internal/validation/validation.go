// Package validation implements the form validation rules for the
// authentication flows. Rules are declared per field and evaluated by a
// single generic engine: each field's rule chain stops at its first failure,
// but failures on one field never suppress checks on another, so the caller
// gets every applicable error in one pass.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors maps a field name to its validation messages. A nil/empty Errors
// means the input passed.
type Errors map[string][]string

// Error implements the error interface so a flow can return field errors
// through a plain error value.
func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(strings.Join(e[f], ", "))
	}
	return b.String()
}

// Add appends a message for a field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Has reports whether a field failed any rule.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Rule checks one field value and returns a human-readable message on
// failure, or the empty string if the value passes.
type Rule func(value string) string

// Field binds a field name and value to its rule chain.
type Field struct {
	Name  string
	Value string
	Rules []Rule
}

// Check evaluates every field independently. Within one field the chain
// short-circuits on the first failing rule ("required" suppresses length and
// pattern checks for that field).
func Check(fields ...Field) Errors {
	errs := make(Errors)
	for _, f := range fields {
		for _, rule := range f.Rules {
			if msg := rule(f.Value); msg != "" {
				errs.Add(f.Name, msg)
				break
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

var validate = validator.New()

// Required rejects empty values. Inputs are trimmed before validation, so
// whitespace-only values are rejected as well.
func Required() Rule {
	return func(value string) string {
		if value == "" {
			return "Required field"
		}
		return ""
	}
}

// Length enforces inclusive character-count bounds.
func Length(min, max int) Rule {
	return func(value string) string {
		n := len([]rune(value))
		if n < min || n > max {
			return fmt.Sprintf("Field must be between %d and %d characters long", min, max)
		}
		return ""
	}
}

// EmailSyntax accepts syntactically valid email addresses.
func EmailSyntax() Rule {
	return func(value string) string {
		if err := validate.Var(value, "email"); err != nil {
			return "Invalid email"
		}
		return ""
	}
}

const passwordSpecials = "@$!%*?&"

// PasswordComplexity enforces the password pattern: only letters, digits and
// the special set @$!%*?& are allowed, with at least one lowercase letter,
// one uppercase letter, one digit and one special character. Go's regexp has
// no lookahead, so the original single-pattern rule is expressed as per-class
// scans.
func PasswordComplexity() Rule {
	return func(value string) string {
		var lower, upper, digit, special bool
		for _, r := range value {
			switch {
			case r >= 'a' && r <= 'z':
				lower = true
			case r >= 'A' && r <= 'Z':
				upper = true
			case r >= '0' && r <= '9':
				digit = true
			case strings.ContainsRune(passwordSpecials, r):
				special = true
			default:
				return "Invalid password pattern"
			}
		}
		if !lower || !upper || !digit || !special {
			return "Invalid password pattern"
		}
		return ""
	}
}
