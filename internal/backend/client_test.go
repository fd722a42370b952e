package backend_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmall/storefront-auth/internal/autherr"
	"github.com/openmall/storefront-auth/internal/backend"
)

func TestLogin(t *testing.T) {
	ctx := t.Context()

	t.Run("posts credentials and decodes tokens", func(t *testing.T) {
		var gotPath, gotContentType, gotRequestID string
		var gotBody map[string]string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotContentType = r.Header.Get("Content-Type")
			gotRequestID = r.Header.Get("X-Request-ID")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)

			_ = json.NewEncoder(w).Encode(backend.TokenResponse{
				AccessToken:  "access",
				RefreshToken: "refresh",
				ExpiresIn:    3600,
			})
		}))
		defer server.Close()

		tokens, err := backend.NewClient(server.URL, nil).Login(ctx, "user@example.com", "secret")
		require.NoError(t, err)

		assert.Equal(t, "/auth/login", gotPath)
		assert.Equal(t, "application/json", gotContentType)
		assert.NotEmpty(t, gotRequestID)
		assert.Equal(t, map[string]string{"email": "user@example.com", "password": "secret"}, gotBody)

		assert.Equal(t, "access", tokens.AccessToken)
		assert.Equal(t, "refresh", tokens.RefreshToken)
		assert.EqualValues(t, 3600, tokens.ExpiresIn)
	})

	t.Run("maps a structured error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":401,"code":"AUTH_INVALID","message":"bad credentials"}`))
		}))
		defer server.Close()

		_, err := backend.NewClient(server.URL, nil).Login(ctx, "user@example.com", "wrong")

		var apiErr *backend.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "AUTH_INVALID", apiErr.Code)
		assert.Equal(t, "bad credentials", apiErr.Message)
	})

	t.Run("tolerates a non-JSON error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}))
		defer server.Close()

		_, err := backend.NewClient(server.URL, nil).Login(ctx, "user@example.com", "secret")

		var apiErr *backend.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Empty(t, apiErr.Code)
	})

	t.Run("wraps transport failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := backend.NewClient(server.URL, nil).Login(ctx, "user@example.com", "secret")

		var netErr *autherr.NetworkError
		require.ErrorAs(t, err, &netErr)
		assert.Contains(t, netErr.Op, "/auth/login")
	})
}

func TestFederatedLogin(t *testing.T) {
	ctx := t.Context()

	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/firebase", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(backend.TokenResponse{AccessToken: "access", RefreshToken: "refresh"})
	}))
	defer server.Close()

	_, err := backend.NewClient(server.URL, nil).FederatedLogin(ctx, "signed-assertion")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"idToken": "signed-assertion"}, gotBody)
}

func TestExchangeCode(t *testing.T) {
	ctx := t.Context()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/naver", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "code-1", r.URL.Query().Get("code"))
		assert.Equal(t, "state-1", r.URL.Query().Get("state"))

		_ = json.NewEncoder(w).Encode(backend.TokenResponse{AccessToken: "access", RefreshToken: "refresh"})
	}))
	defer server.Close()

	tokens, err := backend.NewClient(server.URL, nil).ExchangeCode(ctx, "code-1", "state-1")
	require.NoError(t, err)

	assert.Equal(t, "access", tokens.AccessToken)
	assert.Zero(t, tokens.ExpiresIn)
}

func TestCurrentUser(t *testing.T) {
	ctx := t.Context()

	t.Run("sends the bearer token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/me", r.URL.Path)
			assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))

			_ = json.NewEncoder(w).Encode(backend.User{ID: 7, Email: "user@example.com", Name: "User"})
		}))
		defer server.Close()

		user, err := backend.NewClient(server.URL, nil).CurrentUser(ctx, "access")
		require.NoError(t, err)

		assert.EqualValues(t, 7, user.ID)
		assert.Equal(t, "user@example.com", user.Email)
	})

	t.Run("caches the profile per token", func(t *testing.T) {
		hits := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			_ = json.NewEncoder(w).Encode(backend.User{ID: 7, Email: "user@example.com"})
		}))
		defer server.Close()

		client := backend.NewClient(server.URL, nil)

		_, err := client.CurrentUser(ctx, "access")
		require.NoError(t, err)
		_, err = client.CurrentUser(ctx, "access")
		require.NoError(t, err)
		assert.Equal(t, 1, hits)

		_, err = client.CurrentUser(ctx, "another-access")
		require.NoError(t, err)
		assert.Equal(t, 2, hits)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		fail := true
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fail {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(backend.User{ID: 7})
		}))
		defer server.Close()

		client := backend.NewClient(server.URL, nil)

		_, err := client.CurrentUser(ctx, "access")
		require.Error(t, err)

		fail = false
		user, err := client.CurrentUser(ctx, "access")
		require.NoError(t, err)
		assert.EqualValues(t, 7, user.ID)
	})
}
