package validation

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "agentauth/internal/errors"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	digitsOnly = regexp.MustCompile(`^[0-9]+$`)
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator collects field errors in the order they were found.
type Validator struct {
	Errors []FieldError
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make([]FieldError, 0)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error to the validator
func (v *Validator) AddError(field, message string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Message: message})
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Required checks that a string is not blank
func (v *Validator) Required(field, value string) bool {
	ok := strings.TrimSpace(value) != ""
	v.Check(ok, field, "is required")
	return ok
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field, value string, n int) {
	v.Check(len(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Email validates email format
func (v *Validator) Email(field, email string) {
	v.Check(emailRegex.MatchString(email), field, "must be a valid email address")
}

// OneOf checks value against an allow-list
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if a == value {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")))
}

// Err returns the first error as a validation DomainError, or nil.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	first := v.Errors[0]
	return apperrors.Validation(first.Field, first.Error())
}
