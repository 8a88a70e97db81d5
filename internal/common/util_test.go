package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrUsernameTaken, KindConflict},
		{fmt.Errorf("insert: %w", ErrEmailTaken), KindConflict},
		{ErrInvalidCredentials, KindUnauthorized},
		{ErrInvalidRefreshToken, KindUnauthorized},
		{ErrRefreshTokenExpired, KindUnauthorized},
		{fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired), KindUnauthorized},
		{ErrorForbidden, KindForbidden},
		{fmt.Errorf("%w: username", ErrValidation), KindValidation},
		{ErrEmptyPassword, KindValidation},
		{errors.New("connection refused"), KindInfrastructure},
		{ErrorInternal, KindInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "unauthorized", KindUnauthorized.String())
	assert.Equal(t, "forbidden", KindForbidden.String())
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "infrastructure", KindInfrastructure.String())
}
