// Package oauth adapts the Google OAuth2 endpoints the application consumes:
// authorization-code exchange, token introspection, profile fetch and token
// revocation. Endpoint URLs are injectable so tests can stand in a fake
// provider.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	googleAuthURL      = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL     = "https://oauth2.googleapis.com/token"
	googleTokenInfoURL = "https://www.googleapis.com/oauth2/v1/tokeninfo"
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleRevokeURL    = "https://accounts.google.com/o/oauth2/revoke"
)

// ExchangeError reports a failed authorization-code exchange (invalid or
// expired code).
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("code exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Token is the result of a successful code exchange.
type Token struct {
	AccessToken string
	// GoogleID is the provider-scoped user id, taken from the id_token's
	// subject claim.
	GoogleID string
}

// TokenInfo is Google's introspection response for an access token.
type TokenInfo struct {
	UserID   string `json:"user_id"`
	IssuedTo string `json:"issued_to"`
	Error    string `json:"error"`
}

// Profile holds the fields fetched from the userinfo endpoint.
type Profile struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email"`
}

// Config configures a Client. Empty URL fields fall back to the real Google
// endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	TokenInfoURL string
	UserInfoURL  string
	RevokeURL    string
	HTTPClient   *http.Client
}

type Client struct {
	conf         *oauth2.Config
	httpClient   *http.Client
	tokenInfoURL string
	userInfoURL  string
	revokeURL    string
}

func NewClient(cfg Config) *Client {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = googleAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = googleTokenURL
	}
	tokenInfoURL := cfg.TokenInfoURL
	if tokenInfoURL == "" {
		tokenInfoURL = googleTokenInfoURL
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}
	revokeURL := cfg.RevokeURL
	if revokeURL == "" {
		revokeURL = googleRevokeURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
			// The sign-in button posts the code from the browser; there is
			// no server-side redirect URI.
			RedirectURL: "postmessage",
		},
		httpClient:   httpClient,
		tokenInfoURL: tokenInfoURL,
		userInfoURL:  userInfoURL,
		revokeURL:    revokeURL,
	}
}

// Exchange converts an authorization code into an access token plus the
// provider user id carried in the id_token. Failures are reported as
// *ExchangeError.
func (c *Client) Exchange(ctx context.Context, code string) (*Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}

	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, &ExchangeError{Err: fmt.Errorf("token response carried no id_token")}
	}

	// The id_token arrived over TLS directly from the token endpoint, so its
	// subject is read without signature verification.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, claims); err != nil {
		return nil, &ExchangeError{Err: fmt.Errorf("malformed id_token: %w", err)}
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, &ExchangeError{Err: fmt.Errorf("id_token carried no subject")}
	}

	return &Token{AccessToken: tok.AccessToken, GoogleID: sub}, nil
}

// TokenInfo fetches Google's metadata for an access token. Provider-reported
// problems come back in the Error field of the result, not as a Go error.
func (c *Client) TokenInfo(ctx context.Context, accessToken string) (*TokenInfo, error) {
	info := &TokenInfo{}
	if err := c.getJSON(ctx, c.tokenInfoURL, url.Values{"access_token": {accessToken}}, info); err != nil {
		return nil, err
	}
	return info, nil
}

// Profile fetches the token owner's name, picture and email.
func (c *Client) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	profile := &Profile{}
	params := url.Values{"access_token": {accessToken}, "alt": {"json"}}
	if err := c.getJSON(ctx, c.userInfoURL, params, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Revoke asks the provider to revoke the access token. Only an explicit
// HTTP 200 counts as success.
func (c *Client) Revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.revokeURL+"?token="+url.QueryEscape(accessToken), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revocation refused: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", rawURL, err)
	}
	return nil
}
