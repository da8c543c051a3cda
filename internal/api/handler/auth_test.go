package handler

import (
	"net/http/httptest"
	"testing"

	"lawchat/backend/internal/chathub"
	"lawchat/backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *Handler {
	cfg := &config.Config{JWTSecret: "test-secret"}
	hub := chathub.NewManagerService(nil, 0)
	return NewHandler(hub, cfg)
}

func TestTokenRoundTrip(t *testing.T) {
	h := newTestHandler()

	token, err := h.generateToken("anon-123")
	require.NoError(t, err)

	got, err := h.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "anon-123", got)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	h := newTestHandler()
	token, err := h.generateToken("anon-123")
	require.NoError(t, err)

	other := newTestHandler()
	other.Cfg.JWTSecret = "different-secret"
	_, err = other.parseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	h := newTestHandler()
	_, err := h.parseToken("not.a.token")
	assert.Error(t, err)
}

func TestConnectionIDPrefersValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandler()
	token, err := h.generateToken("anon-123")
	require.NoError(t, err)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/ws?token="+token, nil)
	assert.Equal(t, "anon-123", h.connectionID(c))

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/ws", nil)
	c.Request.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, "anon-123", h.connectionID(c))
}

func TestConnectionIDFallsBackToFreshID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestHandler()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/ws?token=bogus", nil)
	first := h.connectionID(c)
	assert.NotEmpty(t, first)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/ws", nil)
	second := h.connectionID(c)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second, "fresh ids must be unique")
}
