package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChatToken(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db)
	s.chat = &fakeChatClient{}
	app := newTestApp(s)

	user := createTestUser(t, db, "alice")
	session := createTestSession(t, s, user.ID)

	req := withSession(jsonRequest(http.MethodGet, "/api/chat/token", nil), session)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expiresAt"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "chat-token-"+user.ID, body.Token)
	assert.NotEmpty(t, body.ExpiresAt)
}

func TestGetChatTokenUnconfigured(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db)
	app := newTestApp(s)

	user := createTestUser(t, db, "alice")
	session := createTestSession(t, s, user.ID)

	req := withSession(jsonRequest(http.MethodGet, "/api/chat/token", nil), session)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGetChatTokenRequiresAuth(t *testing.T) {
	db := setupHandlerTestDB(t)
	s := newTestServer(t, db)
	s.chat = &fakeChatClient{}
	app := newTestApp(s)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/chat/token", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
