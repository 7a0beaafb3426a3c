package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westrik/chatwire/internal/handler"
	"github.com/westrik/chatwire/internal/service/accounts"
	chatService "github.com/westrik/chatwire/internal/service/chat"
	"github.com/westrik/chatwire/internal/service/hub"
	"github.com/westrik/chatwire/internal/service/session"
	"github.com/westrik/chatwire/pkg/utils"
)

func newBackend(t *testing.T) (*httptest.Server, *accounts.Service) {
	t.Helper()
	accountsSvc := accounts.NewService()
	srv := httptest.NewServer(handler.NewRouter(accountsSvc, chatService.NewStore(), hub.New()))
	t.Cleanup(srv.Close)
	return srv, accountsSvc
}

func TestLoginRoundTripsSession(t *testing.T) {
	srv, accountsSvc := newBackend(t)
	_, err := accountsSvc.Create("alice", "pw", "")
	require.NoError(t, err)

	client := session.NewClient(srv.URL)
	sess, err := client.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "alice", sess.User.Username)
	assert.Equal(t, accounts.RoleMember, sess.User.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, accountsSvc := newBackend(t)
	_, err := accountsSvc.Create("alice", "pw", "")
	require.NoError(t, err)

	client := session.NewClient(srv.URL)
	_, err = client.Login(context.Background(), "alice", "wrong")

	var apiErr *utils.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.True(t, apiErr.IsAuthError())
}

func TestVerifyAndLogoutLifecycle(t *testing.T) {
	srv, accountsSvc := newBackend(t)
	_, err := accountsSvc.Create("alice", "pw", "")
	require.NoError(t, err)

	client := session.NewClient(srv.URL)
	ctx := context.Background()

	sess, err := client.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, client.Verify(ctx, sess.Token))
	require.NoError(t, client.Logout(ctx, sess.Token))

	err = client.Verify(ctx, sess.Token)
	var apiErr *utils.APIError
	require.True(t, errors.As(err, &apiErr), "verify after logout must fail, got %v", err)
	assert.True(t, apiErr.IsAuthError())
}
