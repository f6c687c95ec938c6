package validator_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tabula/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("no failures returns nil", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.RequiredString("email", "jane@example.com"),
			validator.Email("email", "jane@example.com"),
			validator.MinLenString("password", "correct horse", 8),
		)
		require.NoError(t, err)
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.RequiredString("email", "  "),
			validator.MinLenString("password", "abc", 8),
			validator.MaxNum("limit", 500, 100),
		)
		require.Error(t, err)
		require.True(t, validator.IsValidationError(err))

		ve := validator.ExtractValidationErrors(err)
		require.Len(t, ve, 3)
		assert.True(t, ve.Has("email"))
		assert.Equal(t, []string{"must be at least 8 characters long"}, ve.Get("password"))
		assert.Equal(t, 100, ve.GetErrors("limit")[0].TranslationValues["max"])
	})

	t.Run("wrapped errors are detected", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("decode body: %w", validator.Apply(validator.RequiredString("name", "")))
		assert.True(t, validator.IsValidationError(err))
		assert.Len(t, validator.ExtractValidationErrors(err), 1)
		assert.Nil(t, validator.ExtractValidationErrors(assert.AnError))
	})
}

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rule    validator.Rule
		wantKey string
		valid   bool
	}{
		{"email ok", validator.Email("email", "a@b.co"), "validation.email", true},
		{"email empty passes", validator.Email("email", ""), "validation.email", true},
		{"email bad", validator.Email("email", "not-an-email"), "validation.email", false},
		{"email with name rejected", validator.Email("email", "Jane <a@b.co>"), "validation.email", false},
		{"one of ok", validator.OneOf("orderType", "asc", "asc", "desc"), "validation.one_of", true},
		{"one of bad", validator.OneOf("orderType", "up", "asc", "desc"), "validation.one_of", false},
		{"exact length", validator.LenString("code", "1234", 6), "validation.exact_length", false},
		{"required slice", validator.RequiredSlice("ids", []string{}), "validation.required", false},
		{"required map", validator.RequiredMap("data", map[string]any{"a": 1}), "validation.required", true},
		{"required num", validator.RequiredNum("count", 0), "validation.required", false},
		{"max items", validator.MaxLenSlice("tags", []int{1, 2, 3}, 2), "validation.max_items", false},
		{"min num", validator.MinNum("offset", -1, 0), "validation.min", false},
		{"unicode length", validator.MaxLenString("name", "日本語", 3), "validation.max_length", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.valid, tt.rule.Check())
			assert.Equal(t, tt.wantKey, tt.rule.Error.TranslationKey)
		})
	}
}

func TestValidationErrors_Translate(t *testing.T) {
	t.Parallel()

	errs := validator.ExtractValidationErrors(validator.Apply(
		validator.RequiredString("email", ""),
		validator.MinLenString("password", "abc", 8),
	))
	errs = append(errs, validator.ValidationError{Field: "name", Message: "taken"})

	errs.Translate(func(key string, values map[string]any) string {
		return strings.Join([]string{key, fmt.Sprint(values["field"])}, ":")
	})

	assert.Equal(t, "validation.required:email", errs[0].Message)
	assert.Equal(t, "validation.min_length:password", errs[1].Message)
	assert.Equal(t, "taken", errs[2].Message)

	errs.Translate(nil)
	assert.Equal(t, "taken", errs[2].Message)
	assert.Contains(t, errs.Error(), "email: validation.required:email")
}
