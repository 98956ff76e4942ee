package app

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Env = "test"
	cfg.Log.Level = "error"
	cfg.PepperFile = filepath.Join(dir, "pepper")
	cfg.Database.Path = filepath.Join(dir, "otp.db")
	cfg.Notify.File.Path = filepath.Join(dir, "codes.txt")
	return cfg
}

func lastFileCode(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(string(bytes.TrimSpace(b)), "\n")
	last := lines[len(lines)-1]
	_, code, ok := strings.Cut(last, " - OTP: ")
	require.True(t, ok, "unexpected line %q", last)
	return code
}

func TestApplication_EndToEnd(t *testing.T) {
	cfg := testConfig(t)

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := otpsdk.NewClient(srv.URL)

	health, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)

	_, err = client.Register(ctx, otpsdk.RegisterRequest{Username: "alice", Password: "secret123", Role: otpsdk.RoleUser})
	require.NoError(t, err)

	sess, err := client.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	require.NoError(t, sess.GenerateOTP(ctx, otpsdk.GenerateOTPRequest{OperationID: "op-1", Channel: "FILE"}))
	code := lastFileCode(t, cfg.Notify.File.Path)
	require.Len(t, code, 6)

	ok, err := sess.ValidateOTP(ctx, code)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = sess.ValidateOTP(ctx, code)
	require.NoError(t, err)
	require.False(t, ok, "codes are single use")
}

func TestApplication_DisabledChannel(t *testing.T) {
	cfg := testConfig(t)

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	ctx := context.Background()
	client := otpsdk.NewClient(srv.URL)

	_, err = client.Register(ctx, otpsdk.RegisterRequest{
		Username: "bob", Password: "secret123", Role: otpsdk.RoleUser, Email: "bob@example.com",
	})
	require.NoError(t, err)
	sess, err := client.Login(ctx, "bob", "secret123")
	require.NoError(t, err)

	err = sess.GenerateOTP(ctx, otpsdk.GenerateOTPRequest{OperationID: "op-1", Channel: "EMAIL"})
	var apiErr *otpsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.StatusCode)
}

func TestNew_Failures(t *testing.T) {
	t.Run("unreachable redis", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Sessions.Backend = "redis"
		cfg.Sessions.Redis.Addr = "127.0.0.1:1"
		cfg.Sessions.Redis.Timeout = 200 * time.Millisecond

		_, err := New(cfg)
		require.ErrorContains(t, err, "redis")
	})

	t.Run("bad template", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Notify.Body = "{{ .Code "

		_, err := New(cfg)
		require.Error(t, err)
	})

	t.Run("unknown smtp auth", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Notify.Email.Enabled = true
		cfg.Notify.Email.AuthProtocol = "kerberos"

		_, err := New(cfg)
		require.ErrorContains(t, err, "email channel")
	})
}

func TestShutdownBeforeRun(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, app.Shutdown())
	require.NoError(t, app.Shutdown())
}
