// Package validator provides composable request validation rules. Rules are
// plain value checks collected by Apply; handlers inspect the resulting
// ValidationErrors to build field-level responses.
package validator

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

// ValidationError is a single failed check on a named field.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors collects every failed check of one Apply call.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(ve))
	for _, err := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the distinct field names that failed, in first-seen order.
func (ve ValidationErrors) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, err := range ve {
		if !seen[err.Field] {
			fields = append(fields, err.Field)
			seen[err.Field] = true
		}
	}
	return fields
}

// Rule pairs a check with the error reported when the check fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs every rule and returns the collected failures, or nil when all
// checks pass.
func Apply(rules ...Rule) error {
	var ve ValidationErrors
	for _, rule := range rules {
		if !rule.Check() {
			ve = append(ve, rule.Error)
		}
	}
	if len(ve) == 0 {
		return nil
	}
	return ve
}

// ExtractValidationErrors unwraps ValidationErrors from err, or nil when err
// is not a validation failure.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// IsValidationError reports whether err carries ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// Required fails on empty or whitespace-only values.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

// MaxLen fails when the value exceeds max bytes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)},
	}
}

// ValidEmail accepts addresses that parse as a bare RFC 5322 address with a
// dotted domain. Display names ("Jane <j@x.y>") are rejected.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			value = strings.TrimSpace(value)
			if value == "" {
				return false
			}
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value {
				return false
			}
			local, domain, ok := strings.Cut(addr.Address, "@")
			if !ok || local == "" {
				return false
			}
			return strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") &&
				!strings.HasSuffix(domain, ".")
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// StrongPassword enforces the account password policy: at least 8 characters
// with at least one letter and one digit.
func StrongPassword(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < 8 {
				return false
			}
			var hasLetter, hasDigit bool
			for _, r := range value {
				switch {
				case unicode.IsLetter(r):
					hasLetter = true
				case unicode.IsDigit(r):
					hasDigit = true
				}
			}
			return hasLetter && hasDigit
		},
		Error: ValidationError{Field: field, Message: "must be at least 8 characters and contain a letter and a digit"},
	}
}
