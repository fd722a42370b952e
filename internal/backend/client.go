// Package backend is the REST client for the storefront backend's auth and
// user endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openmall/storefront-auth/internal/autherr"
)

const (
	// DefaultTimeout bounds every outbound request; the original client had
	// none and stalled indefinitely on an unresponsive backend.
	DefaultTimeout = 10 * time.Second

	profileCacheTTL = time.Minute
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	profiles   *cache.Cache
}

// NewClient creates a backend client. A nil httpClient gets a default one
// with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		profiles:   cache.New(profileCacheTTL, 5*time.Minute),
	}
}

// APIError is a non-success response from the backend, carrying the
// backend's error code and message when it supplied any.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend returned %d (%s: %s)", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Login exchanges email/password credentials for tokens.
func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	var tokens TokenResponse
	err := c.postJSON(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &tokens)

	return tokens, err
}

// Register creates an account; the backend logs the new user in and
// returns tokens straight away.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (TokenResponse, error) {
	var tokens TokenResponse
	err := c.postJSON(ctx, "/auth/register", req, &tokens)

	return tokens, err
}

// FederatedLogin exchanges a signed identity-provider assertion for tokens.
func (c *Client) FederatedLogin(ctx context.Context, assertion string) (TokenResponse, error) {
	var tokens TokenResponse
	err := c.postJSON(ctx, "/auth/firebase", federatedLoginRequest{IDToken: assertion}, &tokens)

	return tokens, err
}

// ExchangeCode trades a redirect-login authorization code (plus the
// round-tripped state) for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, state string) (TokenResponse, error) {
	q := url.Values{}
	q.Set("code", code)
	q.Set("state", state)

	req, err := c.newRequest(ctx, http.MethodGet, "/auth/naver?"+q.Encode(), nil)
	if err != nil {
		return TokenResponse{}, err
	}

	var tokens TokenResponse
	if err := c.do(req, &tokens); err != nil {
		return TokenResponse{}, err
	}

	return tokens, nil
}

// CurrentUser fetches the authenticated user's profile. Responses are
// cached briefly per access token.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (User, error) {
	if cached, ok := c.profiles.Get(accessToken); ok {
		return cached.(User), nil
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/users/me", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user User
	if err := c.do(req, &user); err != nil {
		return User{}, err
	}

	c.profiles.SetDefault(accessToken, user)

	return user, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, into any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, into)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	return req, nil
}

func (c *Client) do(req *http.Request, into any) error {
	ctx := req.Context()
	slogctx.Debug(ctx, "Calling backend", "method", req.Method, "path", req.URL.Path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &autherr.NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &autherr.NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, body)
	}

	if into == nil {
		return nil
	}

	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func parseErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Code != "" || errResp.Message != "") {
		return &APIError{StatusCode: statusCode, Code: errResp.Code, Message: errResp.Message}
	}

	return &APIError{StatusCode: statusCode}
}
