package otp_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/stretchr/testify/require"
)

// TestGenerateAndValidate covers the happy path through the FILE channel.
func TestGenerateAndValidate(t *testing.T) {
	svc := startService(t, nil)
	_, sess := svc.registerAndLogin(t, "alice", userPassword, otpsdk.RoleUser)

	require.NoError(t, sess.GenerateOTP(t.Context(), otpsdk.GenerateOTPRequest{
		OperationID: "transfer-42",
		Channel:     "FILE",
	}))

	code := svc.lastCode(t)
	require.Len(t, code, 6)
	require.Regexp(t, `^[0-9]{6}$`, code)

	ok, err := sess.ValidateOTP(t.Context(), code)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = sess.ValidateOTP(t.Context(), code)
	require.NoError(t, err)
	require.False(t, ok, "a code validates once")
}

func TestGenerateDistinctCodes(t *testing.T) {
	svc := startService(t, nil)
	_, sess := svc.registerAndLogin(t, "alice", userPassword, otpsdk.RoleUser)

	for range 5 {
		require.NoError(t, sess.GenerateOTP(t.Context(), otpsdk.GenerateOTPRequest{OperationID: "op", Channel: "FILE"}))
	}

	codes := svc.codes(t)
	require.Len(t, codes, 5)
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		seen[c] = struct{}{}
	}
	require.Len(t, seen, 5, "live codes never collide")
}

func TestValidateUnknownCode(t *testing.T) {
	svc := startService(t, nil)
	_, sess := svc.registerAndLogin(t, "alice", userPassword, otpsdk.RoleUser)

	ok, err := sess.ValidateOTP(t.Context(), "000000")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGenerateUnsupportedChannel(t *testing.T) {
	svc := startService(t, nil)
	_, sess := svc.registerAndLogin(t, "alice", userPassword, otpsdk.RoleUser)

	for _, ch := range []string{"PIGEON", "EMAIL", "SMS", "TELEGRAM"} {
		err := sess.GenerateOTP(t.Context(), otpsdk.GenerateOTPRequest{OperationID: "op", Channel: ch})
		assertStatus(t, err, http.StatusBadRequest, ch)
	}
}

func TestConcurrentValidateSucceedsOnce(t *testing.T) {
	svc := startService(t, nil)
	_, sess := svc.registerAndLogin(t, "alice", userPassword, otpsdk.RoleUser)

	require.NoError(t, sess.GenerateOTP(t.Context(), otpsdk.GenerateOTPRequest{OperationID: "op", Channel: "FILE"}))
	code := svc.lastCode(t)

	const workers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := sess.ValidateOTP(t.Context(), code)
			if err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

// TestExpiredCodeIsRejected waits out the shortest allowed TTL.
func TestExpiredCodeIsRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a code to expire")
	}

	svc := startService(t, map[string]string{"OTPGATE_OTP__SWEEP_INTERVAL": "1s"})
	_, admin := svc.registerAndLogin(t, adminUsername, adminPassword, otpsdk.RoleAdmin)
	require.NoError(t, admin.UpdateOTPConfig(t.Context(), otpsdk.UpdateOTPConfigRequest{Length: 8, TTLSeconds: 30}))

	user, sess := svc.registerAndLogin(t, "alice", userPassword, otpsdk.RoleUser)
	require.NoError(t, sess.GenerateOTP(t.Context(), otpsdk.GenerateOTPRequest{OperationID: "op", Channel: "FILE"}))
	code := svc.lastCode(t)
	require.Len(t, code, 8, "length is read at issue time")

	require.Eventually(t, func() bool {
		otps, err := admin.ListUserOTPs(t.Context(), user.ID)
		return err == nil && len(otps) == 1 && otps[0].Status == "EXPIRED"
	}, 45*time.Second, time.Second, "sweeper should expire the code")

	ok, err := sess.ValidateOTP(t.Context(), code)
	require.NoError(t, err)
	require.False(t, ok)
}
