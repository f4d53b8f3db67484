package plugin

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrTypeConfig, "Configuration Error"},
		{ErrTypeRegistration, "Registration Error"},
		{ErrTypeLookup, "Lookup Error"},
		{ErrorType(99), "ErrorType(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errType.String())
		})
	}
}

func TestError_Error(t *testing.T) {
	base := errors.New("boom")

	err := NewError(ErrTypeRegistration, "Mopria", "start", base)
	assert.Equal(t, "Registration Error: Mopria start: boom", err.Error())

	err = NewError(ErrTypeConfig, "", "new", base)
	assert.Equal(t, "Configuration Error: new: boom", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("outer: %w", NewError(ErrTypeLookup, "HP", "lookup", base))

	assert.ErrorIs(t, wrapped, base)
	assert.True(t, IsLookupError(wrapped))
	assert.False(t, IsConfigError(wrapped))
	assert.False(t, IsRegistrationError(wrapped))
}

func TestIsHelpers_PlainError(t *testing.T) {
	plain := errors.New("plain")
	assert.False(t, IsConfigError(plain))
	assert.False(t, IsRegistrationError(plain))
	assert.False(t, IsLookupError(plain))
	assert.False(t, IsConfigError(nil))
}
