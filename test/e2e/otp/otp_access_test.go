package otp_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/stretchr/testify/require"
)

func TestMissingOrBadTokenIsUnauthorized(t *testing.T) {
	svc := startService(t, nil)

	anonymous := svc.client.NewSession("", 0)
	err := anonymous.GenerateOTP(t.Context(), otpsdk.GenerateOTPRequest{OperationID: "op", Channel: "FILE"})
	assertStatus(t, err, http.StatusUnauthorized, "no token")

	forged := svc.client.NewSession("forged-token", 0)
	_, err = forged.ListUsers(t.Context())
	assertStatus(t, err, http.StatusUnauthorized, "unknown token on an admin route")
}

func TestUserCannotReachAdminRoutes(t *testing.T) {
	svc := startService(t, nil)
	_, sess := svc.registerAndLogin(t, "alice", userPassword, otpsdk.RoleUser)

	_, err := sess.ListUsers(t.Context())
	assertStatus(t, err, http.StatusForbidden, "list users")

	_, err = sess.GetOTPConfig(t.Context())
	assertStatus(t, err, http.StatusForbidden, "get config")
}

func TestUserCannotTargetOthers(t *testing.T) {
	svc := startService(t, nil)
	bob, _ := svc.registerAndLogin(t, "bob", userPassword, otpsdk.RoleUser)
	_, alice := svc.registerAndLogin(t, "alice", userPassword, otpsdk.RoleUser)

	err := alice.GenerateOTP(t.Context(), otpsdk.GenerateOTPRequest{UserID: bob.ID, OperationID: "op", Channel: "FILE"})
	assertStatus(t, err, http.StatusForbidden, "generate for another user")
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := startService(t, nil)
	_, sess := svc.registerAndLogin(t, "alice", userPassword, otpsdk.RoleUser)

	require.NoError(t, sess.Logout(t.Context()))

	_, err := sess.ValidateOTP(t.Context(), "123456")
	assertStatus(t, err, http.StatusUnauthorized, "after logout")
}

func TestSecondAdminIsRejected(t *testing.T) {
	svc := startService(t, nil)
	svc.registerAndLogin(t, adminUsername, adminPassword, otpsdk.RoleAdmin)

	_, err := svc.client.Register(t.Context(), otpsdk.RegisterRequest{
		Username: "admin2", Password: adminPassword, Role: otpsdk.RoleAdmin,
	})
	assertStatus(t, err, http.StatusConflict, "second admin")
}

func TestWrongPassword(t *testing.T) {
	svc := startService(t, nil)
	svc.registerAndLogin(t, "alice", userPassword, otpsdk.RoleUser)

	_, err := svc.client.Login(t.Context(), "alice", "not-the-password")
	assertStatus(t, err, http.StatusUnauthorized, "wrong password")
}
