package validx_test

import (
	"errors"
	"testing"

	"github.com/aussiebroadwan/otpgate/pkg/validx"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validx.Struct(signup{Username: "alice.b", Password: "secret1"}))
	})

	t.Run("reports json field names", func(t *testing.T) {
		err := validx.Struct(signup{Username: "al", Password: "x", Email: "nope"})

		var verr validx.Errors
		require.True(t, errors.As(err, &verr))
		require.Len(t, verr, 3)
		require.Contains(t, verr, "username")
		require.Contains(t, verr, "password")
		require.Contains(t, verr, "email")
		require.Contains(t, verr["username"], "at least 3 characters")
	})

	t.Run("custom username rule", func(t *testing.T) {
		err := validx.Struct(signup{Username: "bad name!", Password: "secret1"})

		var verr validx.Errors
		require.True(t, errors.As(err, &verr))
		require.Equal(t, "username can contain only letters, digits, '.', '_' and '-'", verr["username"])
	})

	t.Run("non-struct input", func(t *testing.T) {
		err := validx.Struct("just a string")
		require.Error(t, err)

		var verr validx.Errors
		require.False(t, errors.As(err, &verr))
	})
}

func TestErrorsString(t *testing.T) {
	require.Equal(t, "validation error", validx.Errors{}.Error())
	require.JSONEq(t, `{"code":"code must be numeric"}`, validx.Errors{"code": "code must be numeric"}.Error())
}
