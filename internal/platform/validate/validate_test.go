// Copyright (c) 2026 Comunidad. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comunidad/internal/platform/apperr"
	"github.com/taibuivan/comunidad/internal/platform/validate"
	"github.com/taibuivan/comunidad/pkg/pointer"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{"valid_string", "Hello", false},
		{"empty_string", "", true},
		{"whitespace_only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required("title", tt.value)

			if !tt.hasError {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
				return
			}

			ae := apperr.As(v.Err())
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeValidation, ae.Code)
			assert.Equal(t, "title", ae.Details[0].Field)
		})
	}
}

func TestValidator_Slug(t *testing.T) {
	tests := []struct {
		slug    string
		isValid bool
	}{
		{"hello", true},
		{"hello-world-2", true},
		{"Hello", false},
		{"-hello", false},
		{"hello--world", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			v := (&validate.Validator{}).Slug("slug", tt.slug)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

func TestValidator_UUIDs(t *testing.T) {
	v := (&validate.Validator{}).UUIDs("tag_ids", []string{
		"0190f1a2-7b3c-7d4e-8f00-112233445566",
		"nope",
	})

	ae := apperr.As(v.Err())
	require.NotNil(t, ae)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "tag_ids[1]", ae.Details[0].Field)
}

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name    string
		value   *string
		isValid bool
	}{
		{"absent", nil, true},
		{"empty", pointer.To(""), true},
		{"https", pointer.To("https://cdn.comunidad.app/a.png"), true},
		{"relative", pointer.To("/a.png"), false},
		{"other scheme", pointer.To("javascript:alert(1)"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := (&validate.Validator{}).URL("featured_image_url", tt.value)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

func TestValidator_ChainCollectsEveryFailure(t *testing.T) {
	err := (&validate.Validator{}).
		Required("title", "").
		MaxLen("excerpt", "abcdef", 3).
		MinLen("username", "ab", 3).
		OneOf("status", "deleted", "draft", "published", "archived").
		Custom("status", true, "Archived posts cannot change status").
		Err()

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 5)
}

func TestFieldError(t *testing.T) {
	ae := validate.FieldError("role", "Cannot change your own role")
	assert.Equal(t, apperr.CodeValidation, ae.Code)
	assert.Equal(t, "role", ae.Details[0].Field)
}
