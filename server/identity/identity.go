// Package identity implements the client for the hosted identity provider.
// The provider runs the Google OAuth consent flow; this client exchanges the
// authorization code it hands back for the user's session material.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/scribehq/scribe/server/config"
	"github.com/scribehq/scribe/server/contexts/ctxerr"
	"github.com/scribehq/scribe/server/scribe"
)

// Client talks to the identity provider over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates an identity provider client from config.
func NewClient(conf config.IdentityConfig) (*Client, error) {
	if conf.URL == "" {
		return nil, ctxerr.New(context.Background(), "identity provider url is not configured")
	}
	if _, err := url.Parse(conf.URL); err != nil {
		return nil, fmt.Errorf("parse identity provider url: %w", err)
	}
	return &Client{
		baseURL: conf.URL,
		apiKey:  conf.APIKey,
		client:  &http.Client{Timeout: conf.RequestTimeout},
	}, nil
}

type exchangeRequest struct {
	AuthCode string `json:"auth_code"`
}

type exchangeResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
	SessionID            string `json:"session_id"`
	ProviderRefreshToken string `json:"provider_refresh_token"`
	ExpiresIn            int    `json:"expires_in"`
}

// ExchangeCodeForSession trades the OAuth authorization code for the user's
// identity and the provider refresh token.
func (c *Client) ExchangeCodeForSession(ctx context.Context, code string) (*scribe.AuthSession, error) {
	body, err := json.Marshal(exchangeRequest{AuthCode: code})
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "marshal code exchange request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/token?grant_type=authorization_code", bytes.NewReader(body))
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "create code exchange request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ctxerr.Wrap(ctx, err, "post code exchange request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ctxerr.Errorf(ctx, "identity provider returned status %d", resp.StatusCode)
	}

	var payload exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, ctxerr.Wrap(ctx, err, "decode code exchange response")
	}
	if payload.User.ID == "" {
		return nil, ctxerr.New(ctx, "identity provider returned no user")
	}

	expiresIn := payload.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = scribe.DefaultTokenExpirySeconds
	}

	return &scribe.AuthSession{
		UserID:               payload.User.ID,
		Email:                payload.User.Email,
		UserName:             payload.User.Name,
		SessionID:            payload.SessionID,
		ProviderRefreshToken: payload.ProviderRefreshToken,
		ExpiresIn:            expiresIn,
	}, nil
}
