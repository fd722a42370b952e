// Package firebase implements the identity-provider collaborator against
// the Firebase Identity Toolkit REST API.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openmall/storefront-auth/internal/autherr"
	"github.com/openmall/storefront-auth/internal/idp"
)

const DefaultEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

type Provider struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

var _ = idp.Provider(&Provider{})

func New(apiKey, endpoint string, httpClient *http.Client) *Provider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken string `json:"idToken"`
}

// SignIn authenticates against the identity provider and returns the
// signed ID token assertion.
func (p *Provider) SignIn(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return "", fmt.Errorf("encoding sign-in request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"?key="+p.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &autherr.NetworkError{Op: "identity provider sign-in", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var signIn signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&signIn); err != nil {
		return "", fmt.Errorf("decoding sign-in response: %w", err)
	}

	if signIn.IDToken == "" {
		return "", fmt.Errorf("identity provider returned no assertion")
	}

	return signIn.IDToken, nil
}
