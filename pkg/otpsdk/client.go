package otpsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to the public endpoints and opens Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *Client) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v1/register", "", req)
	if err != nil {
		return nil, err
	}
	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a Session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v1/login", "", LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	return c.NewSession(tok.Token, tok.ExpiresIn), nil
}

// NewSession wraps an existing token.
func (c *Client) NewSession(token string, expiresIn int) *Session {
	return &Session{
		client:    c,
		token:     token,
		expiresAt: time.Now().Add(time.Duration(expiresIn) * time.Second),
	}
}
