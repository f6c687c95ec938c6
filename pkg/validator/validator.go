// Package validator provides rule based validation with translatable errors.
//
//	err := validator.Apply(
//		validator.RequiredString("email", in.Email),
//		validator.Email("email", in.Email),
//		validator.MinLenString("password", in.Password, 8),
//	)
//
// Every failed rule becomes a [ValidationError] carrying a translation key
// and values, so callers can localize messages with [ValidationErrors.Translate].
package validator

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"
)

// ValidationError describes one failed rule.
type ValidationError struct {
	TranslationValues map[string]any `json:"-"`
	Field             string         `json:"field"`
	Message           string         `json:"message"`
	TranslationKey    string         `json:"-"`
}

// ValidationErrors is the error returned by Apply.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Get returns the messages recorded for a field.
func (e ValidationErrors) Get(field string) []string {
	var msgs []string
	for _, v := range e {
		if v.Field == field {
			msgs = append(msgs, v.Message)
		}
	}
	return msgs
}

// GetErrors returns the errors recorded for a field.
func (e ValidationErrors) GetErrors(field string) []ValidationError {
	var out []ValidationError
	for _, v := range e {
		if v.Field == field {
			out = append(out, v)
		}
	}
	return out
}

// Has reports whether a field has at least one error.
func (e ValidationErrors) Has(field string) bool {
	return slices.ContainsFunc(e, func(v ValidationError) bool { return v.Field == field })
}

// Translate replaces messages in place using fn.
// Errors without a translation key are left untouched.
func (e ValidationErrors) Translate(fn func(key string, values map[string]any) string) {
	if fn == nil {
		return
	}
	for i := range e {
		if e[i].TranslationKey == "" {
			continue
		}
		e[i].Message = fn(e[i].TranslationKey, e[i].TranslationValues)
	}
}

// IsValidationError reports whether err wraps ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// ExtractValidationErrors unwraps ValidationErrors from err.
// Returns nil when err does not carry validation errors.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// Rule is a single deferred check.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs all rules and collects the failures.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if r.Check != nil && !r.Check() {
			errs = append(errs, r.Error)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Numeric covers the number types the numeric rules accept.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func newError(field, key, msg string, values map[string]any) ValidationError {
	if values == nil {
		values = map[string]any{}
	}
	values["field"] = field
	return ValidationError{Field: field, Message: msg, TranslationKey: key, TranslationValues: values}
}

func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: newError(field, "validation.required", "field is required", nil),
	}
}

func RequiredSlice[T any](field string, value []T) Rule {
	return Rule{
		Check: func() bool { return len(value) > 0 },
		Error: newError(field, "validation.required", "field is required", nil),
	}
}

func RequiredMap[K comparable, V any](field string, value map[K]V) Rule {
	return Rule{
		Check: func() bool { return len(value) > 0 },
		Error: newError(field, "validation.required", "field is required", nil),
	}
}

func RequiredNum[T Numeric](field string, value T) Rule {
	return Rule{
		Check: func() bool { return value != 0 },
		Error: newError(field, "validation.required", "field is required", nil),
	}
}

func MinLenString(field, value string, min int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) >= min },
		Error: newError(field, "validation.min_length",
			fmt.Sprintf("must be at least %d characters long", min), map[string]any{"min": min}),
	}
}

func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: newError(field, "validation.max_length",
			fmt.Sprintf("must not exceed %d characters", max), map[string]any{"max": max}),
	}
}

func LenString(field, value string, length int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) == length },
		Error: newError(field, "validation.exact_length",
			fmt.Sprintf("must be exactly %d characters long", length), map[string]any{"length": length}),
	}
}

func MaxLenSlice[T any](field string, value []T, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: newError(field, "validation.max_items",
			fmt.Sprintf("must not contain more than %d items", max), map[string]any{"max": max}),
	}
}

func MinNum[T Numeric](field string, value, min T) Rule {
	return Rule{
		Check: func() bool { return value >= min },
		Error: newError(field, "validation.min", fmt.Sprintf("must be at least %v", min), map[string]any{"min": min}),
	}
}

func MaxNum[T Numeric](field string, value, max T) Rule {
	return Rule{
		Check: func() bool { return value <= max },
		Error: newError(field, "validation.max", fmt.Sprintf("must not exceed %v", max), map[string]any{"max": max}),
	}
}

// Email checks the address syntax. Empty values pass; pair with RequiredString.
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			addr, err := mail.ParseAddress(value)
			return err == nil && addr.Address == value
		},
		Error: newError(field, "validation.email", "must be a valid email address", nil),
	}
}

// OneOf checks that value is one of allowed. Empty values pass.
func OneOf[T comparable](field string, value T, allowed ...T) Rule {
	return Rule{
		Check: func() bool {
			var zero T
			return value == zero || slices.Contains(allowed, value)
		},
		Error: newError(field, "validation.one_of", "has an unsupported value", map[string]any{"allowed": allowed}),
	}
}
