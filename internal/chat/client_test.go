package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertUser(t *testing.T) {
	var gotPath, gotAuthType, gotToken string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotAuthType = r.Header.Get("stream-auth-type")
		gotToken = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"duration":"1ms"}`))
	}))
	defer srv.Close()

	client, err := NewStreamClient(srv.URL, "key123", "secret456")
	require.NoError(t, err)

	err = client.UpsertUser(context.Background(), User{
		ID:       "u1abc",
		Username: "alice",
		Name:     "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "/users?api_key=key123", gotPath)
	assert.Equal(t, "jwt", gotAuthType)
	assert.NotEmpty(t, gotToken)

	users, ok := gotBody["users"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, users, "u1abc")
}

func TestUpsertUserErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	client, err := NewStreamClient(srv.URL, "key123", "secret456")
	require.NoError(t, err)

	err = client.UpsertUser(context.Background(), User{ID: "u1abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestNewStreamClientRequiresCredentials(t *testing.T) {
	_, err := NewStreamClient("", "key", "secret")
	assert.Error(t, err)
	_, err = NewStreamClient("https://example.com", "", "secret")
	assert.Error(t, err)
	_, err = NewStreamClient("https://example.com", "key", "")
	assert.Error(t, err)
}

func TestCreateToken(t *testing.T) {
	client, err := NewStreamClient("https://example.com", "key123", "secret456")
	require.NoError(t, err)

	tokenStr, err := client.CreateToken("u1abc", time.Time{})
	require.NoError(t, err)

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte("secret456"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "u1abc", claims["user_id"])
	_, hasExp := claims["exp"]
	assert.False(t, hasExp)
}

func TestDecodeResponseParsesAtTimestamps(t *testing.T) {
	payload := `{
		"user": {
			"id": "u1abc",
			"createdAt": "2024-03-01T10:30:00Z",
			"lastActiveAt": "2024-03-02T08:15:30.5Z",
			"atlas": "not a timestamp key",
			"updatedAt": "not a timestamp value"
		},
		"members": [
			{"joinedAt": "2024-01-15T00:00:00Z"}
		]
	}`

	decoded, err := DecodeResponse(strings.NewReader(payload))
	require.NoError(t, err)

	user := decoded["user"].(map[string]any)

	created, ok := user["createdAt"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2024, created.Year())

	_, ok = user["lastActiveAt"].(time.Time)
	assert.True(t, ok)

	// Keys not ending in "At" stay strings
	_, ok = user["atlas"].(string)
	assert.True(t, ok)

	// Unparseable values under "At" keys pass through unchanged
	assert.Equal(t, "not a timestamp value", user["updatedAt"])

	member := decoded["members"].([]any)[0].(map[string]any)
	_, ok = member["joinedAt"].(time.Time)
	assert.True(t, ok)
}
