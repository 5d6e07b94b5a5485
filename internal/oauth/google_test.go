package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIDToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

// fakeGoogle serves the provider endpoints the adapter talks to.
func fakeGoogle(t *testing.T, googleID string, revokeStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if r.FormValue("code") == "bad-code" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		resp := map[string]interface{}{
			"access_token": "tok-abc",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if r.FormValue("code") != "no-id-token" {
			resp["id_token"] = signedIDToken(t, googleID)
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/tokeninfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("access_token") == "expired" {
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_token"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"user_id":   googleID,
			"issued_to": "client-1",
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"name":    "Alice",
			"picture": "https://example.com/a.png",
			"email":   "alice@example.com",
		})
	})
	mux.HandleFunc("/revoke", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(revokeStatus)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		ClientID:     "client-1",
		ClientSecret: "secret",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		TokenInfoURL: srv.URL + "/tokeninfo",
		UserInfoURL:  srv.URL + "/userinfo",
		RevokeURL:    srv.URL + "/revoke",
	})
}

func TestExchange(t *testing.T) {
	srv := fakeGoogle(t, "goog-123", http.StatusOK)
	client := newTestClient(srv)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		token, err := client.Exchange(ctx, "good-code")
		require.NoError(t, err)
		assert.Equal(t, "tok-abc", token.AccessToken)
		assert.Equal(t, "goog-123", token.GoogleID)
	})

	t.Run("BadCode", func(t *testing.T) {
		_, err := client.Exchange(ctx, "bad-code")
		require.Error(t, err)
		var exchangeErr *ExchangeError
		assert.ErrorAs(t, err, &exchangeErr)
	})

	t.Run("MissingIDToken", func(t *testing.T) {
		_, err := client.Exchange(ctx, "no-id-token")
		require.Error(t, err)
		var exchangeErr *ExchangeError
		assert.ErrorAs(t, err, &exchangeErr)
	})
}

func TestTokenInfo(t *testing.T) {
	srv := fakeGoogle(t, "goog-123", http.StatusOK)
	client := newTestClient(srv)
	ctx := context.Background()

	info, err := client.TokenInfo(ctx, "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "goog-123", info.UserID)
	assert.Equal(t, "client-1", info.IssuedTo)
	assert.Empty(t, info.Error)

	info, err = client.TokenInfo(ctx, "expired")
	require.NoError(t, err)
	assert.Equal(t, "invalid_token", info.Error)
}

func TestProfile(t *testing.T) {
	srv := fakeGoogle(t, "goog-123", http.StatusOK)
	client := newTestClient(srv)

	profile, err := client.Profile(context.Background(), "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, "https://example.com/a.png", profile.Picture)
	assert.Equal(t, "alice@example.com", profile.Email)
}

func TestRevoke(t *testing.T) {
	t.Run("Confirmed", func(t *testing.T) {
		srv := fakeGoogle(t, "goog-123", http.StatusOK)
		client := newTestClient(srv)
		assert.NoError(t, client.Revoke(context.Background(), "tok-abc"))
	})

	t.Run("Refused", func(t *testing.T) {
		srv := fakeGoogle(t, "goog-123", http.StatusBadRequest)
		client := newTestClient(srv)
		assert.Error(t, client.Revoke(context.Background(), "tok-abc"))
	})
}
