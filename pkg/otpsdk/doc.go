/*
Package otpsdk is the Go client for the otpgate HTTP API, and the home of the
request and response types the server decodes and encodes.

Use a Client for public endpoints and to log in:

	client := otpsdk.NewClient("http://localhost:8080")

	_, err := client.Register(ctx, otpsdk.RegisterRequest{
		Username: "alice",
		Password: "s3cret!",
		Role:     otpsdk.RoleUser,
		Email:    "alice@example.com",
	})

	session, err := client.Login(ctx, "alice", "s3cret!")

A Session carries the bearer token for protected endpoints:

	err = session.GenerateOTP(ctx, otpsdk.GenerateOTPRequest{
		OperationID: "transfer-42",
		Channel:     "EMAIL",
	})

	ok, err := session.ValidateOTP(ctx, code)

Session tokens expire after a fixed lifetime and are not refreshed. Log in
again once calls start failing with a 401.

Failed calls return *APIError carrying the HTTP status and the server's error
code. Request types expose Validate so callers can check input locally
before sending it.
*/
package otpsdk
