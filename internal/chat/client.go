// Package chat integrates with the external chat service. The application
// never hosts chat itself; it mirrors user identities into the service and
// mints client tokens for the frontend SDK.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the identity payload mirrored into the chat service.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Image    string `json:"image,omitempty"`
}

// Client is the narrow surface the application needs from the chat service.
// It is an interface so flows that call it inside transactions can be tested
// with fakes.
type Client interface {
	// UpsertUser creates or updates the mirrored identity.
	UpsertUser(ctx context.Context, user User) error
	// CreateToken mints a client-side token for the given user.
	CreateToken(userID string, expiresAt time.Time) (string, error)
}

// StreamClient talks to a Stream-style chat API: server-to-server calls are
// authenticated with a JWT signed by the API secret.
type StreamClient struct {
	baseURL     string
	apiKey      string
	apiSecret   []byte
	serverToken string
	http        *http.Client
}

// NewStreamClient builds a chat client for the given credentials.
func NewStreamClient(baseURL, apiKey, apiSecret string) (*StreamClient, error) {
	if baseURL == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("chat: base URL, API key, and API secret are required")
	}

	c := &StreamClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		http:      &http.Client{Timeout: 10 * time.Second},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"server": true,
	}).SignedString(c.apiSecret)
	if err != nil {
		return nil, fmt.Errorf("chat: signing server token: %w", err)
	}
	c.serverToken = token

	return c, nil
}

// UpsertUser creates or updates the mirrored identity in the chat service.
func (c *StreamClient) UpsertUser(ctx context.Context, user User) error {
	if user.ID == "" {
		return fmt.Errorf("chat: user ID is required")
	}

	body := map[string]any{
		"users": map[string]User{user.ID: user},
	}
	_, err := c.do(ctx, http.MethodPost, "/users", body)
	return err
}

// CreateToken mints a token the frontend chat SDK presents as the user.
// A zero expiresAt produces a non-expiring token.
func (c *StreamClient) CreateToken(userID string, expiresAt time.Time) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("chat: user ID is required")
	}

	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     time.Now().Unix(),
	}
	if !expiresAt.IsZero() {
		claims["exp"] = expiresAt.Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.apiSecret)
}

// do issues an authenticated request and decodes the JSON response with
// timestamp conversion applied.
func (c *StreamClient) do(ctx context.Context, method, path string, body any) (map[string]any, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("chat: encoding request: %w", err)
		}
	}

	u := c.baseURL + path + "?api_key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.serverToken)
	req.Header.Set("stream-auth-type", "jwt")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	decoded, decodeErr := DecodeResponse(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil {
			if m, ok := decoded["message"].(string); ok {
				msg = ": " + m
			}
		}
		return nil, fmt.Errorf("chat: %s %s returned %d%s", method, path, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("chat: decoding response: %w", decodeErr)
	}
	return decoded, nil
}
