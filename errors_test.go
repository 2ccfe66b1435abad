package accounts_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-accounts"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      accounts.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      accounts.ErrIdentityNotFound,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := accounts.IsTokenExpiredError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured malformed error",
			err:      accounts.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("token is malformed"),
			expected: true,
		},
		{
			name:     "Legacy missing JWT error (string match)",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      accounts.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := accounts.IsMalformedError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrIdentityNotFound", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, accounts.ErrIdentityNotFound.Category)
		assert.Equal(t, "identity not found", accounts.ErrIdentityNotFound.Message)
	})

	t.Run("ErrMismatchedHashAndPassword", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrMismatchedHashAndPassword.Category)
		assert.Equal(t, accounts.TextCodeInvalidCreds, accounts.ErrMismatchedHashAndPassword.TextCode)
		assert.Equal(t, "the credentials provided are invalid", accounts.ErrMismatchedHashAndPassword.Message)
	})

	t.Run("ErrDuplicateIdentity", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, accounts.ErrDuplicateIdentity.Category)
		assert.Equal(t, accounts.TextCodeDuplicateIdentity, accounts.ErrDuplicateIdentity.TextCode)
	})

	t.Run("ErrTooManyLoginAttempts", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryRateLimit, accounts.ErrTooManyLoginAttempts.Category)
		assert.Equal(t, accounts.TextCodeTooManyAttempts, accounts.ErrTooManyLoginAttempts.TextCode)
	})

	t.Run("ErrUnableToFindSession", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrUnableToFindSession.Category)
		assert.Equal(t, accounts.TextCodeSessionNotFound, accounts.ErrUnableToFindSession.TextCode)
	})

	t.Run("ErrUnableToDecodeSession", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrUnableToDecodeSession.Category)
		assert.Equal(t, accounts.TextCodeSessionDecodeError, accounts.ErrUnableToDecodeSession.TextCode)
	})

	t.Run("ErrUnableToMapClaims", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrUnableToMapClaims.Category)
		assert.Equal(t, accounts.TextCodeClaimsMappingError, accounts.ErrUnableToMapClaims.TextCode)
	})

	t.Run("ErrUnableToParseData", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryBadInput, accounts.ErrUnableToParseData.Category)
		assert.Equal(t, accounts.TextCodeDataParseError, accounts.ErrUnableToParseData.TextCode)
	})

	t.Run("ErrNoEmptyString", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, accounts.ErrNoEmptyString.Category)
		assert.Equal(t, accounts.TextCodeEmptyPassword, accounts.ErrNoEmptyString.TextCode)
	})

	t.Run("ErrTokenExpired", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrTokenExpired.Category)
		assert.Equal(t, accounts.TextCodeTokenExpired, accounts.ErrTokenExpired.TextCode)
	})

	t.Run("ErrTokenMalformed", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, accounts.ErrTokenMalformed.Category)
		assert.Equal(t, accounts.TextCodeTokenMalformed, accounts.ErrTokenMalformed.TextCode)
	})
}
