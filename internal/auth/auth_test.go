package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gfdmit/blog-service/internal/repository/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, string) {
	t.Helper()
	repo, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	token, err := NewToken()
	require.NoError(t, err)
	_, err = repo.CreateUser(context.Background(), "alice", HashToken(token))
	require.NoError(t, err)
	return New(repo), token
}

func TestNewTokenIsRandom(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)

	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
	assert.Equal(t, HashToken(a), HashToken(a))
	assert.NotEqual(t, HashToken(a), HashToken(b))
}

func TestAuthenticate(t *testing.T) {
	authenticator, token := newTestAuthenticator(t)
	ctx := context.Background()

	user, err := authenticator.Authenticate(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, user)

	for _, header := range []string{"Token " + token, "Bearer " + token, "token  " + token} {
		user, err = authenticator.Authenticate(ctx, header)
		require.NoError(t, err, header)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
	}

	for _, header := range []string{token, "Basic dXNlcjpwYXNz", "Digest username=alice"} {
		user, err = authenticator.Authenticate(ctx, header)
		require.NoError(t, err, header)
		assert.Nil(t, user, header)
	}

	for _, header := range []string{"Token", "Token ", "Token wrong", "Token a b"} {
		_, err = authenticator.Authenticate(ctx, header)
		assert.ErrorIs(t, err, ErrInvalidToken, header)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	authenticator, token := newTestAuthenticator(t)

	engine := gin.New()
	engine.Use(authenticator.Middleware())
	engine.GET("/whoami", func(c *gin.Context) {
		user := UserFrom(c.Request.Context())
		if user == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.Username)
	})

	cases := []struct {
		header string
		status int
		body   string
	}{
		{header: "", status: http.StatusOK, body: "anonymous"},
		{header: "Token " + token, status: http.StatusOK, body: "alice"},
		{header: "Basic dXNlcjpwYXNz", status: http.StatusOK, body: "anonymous"},
		{header: "Token wrong", status: http.StatusUnauthorized, body: `{"detail":"Invalid token."}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		assert.Equal(t, tc.status, rec.Code, tc.header)
		assert.Equal(t, tc.body, rec.Body.String(), tc.header)
	}
}
