package chat_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westrik/chatwire/internal/handler"
	model "github.com/westrik/chatwire/internal/model/chat"
	"github.com/westrik/chatwire/internal/service/accounts"
	chatService "github.com/westrik/chatwire/internal/service/chat"
	"github.com/westrik/chatwire/internal/service/compose"
	"github.com/westrik/chatwire/internal/service/hub"
	"github.com/westrik/chatwire/internal/service/presence"
	"github.com/westrik/chatwire/internal/service/session"
	"github.com/westrik/chatwire/internal/service/stream"
)

// testClient is the full client stack one user runs: a live stream feeding
// the dispatcher, plus a composer posting through the same session.
type testClient struct {
	session  model.Session
	store    *chatService.Store
	tracker  *presence.Tracker
	manager  *stream.Manager
	composer *compose.Composer
}

func newServer(t *testing.T) (*httptest.Server, *accounts.Service) {
	t.Helper()
	accountsSvc := accounts.NewService()
	srv := httptest.NewServer(handler.NewRouter(accountsSvc, chatService.NewStore(), hub.New()))
	t.Cleanup(srv.Close)
	return srv, accountsSvc
}

// connect logs the user in and opens their stream. Cleanup tears the
// stream down before the test server closes.
func connect(t *testing.T, baseURL, username, password string) *testClient {
	t.Helper()

	sess, err := session.NewClient(baseURL).Login(context.Background(), username, password)
	require.NoError(t, err)

	store := chatService.NewStore()
	tracker := presence.NewTracker(sess.User.ID)
	manager := stream.NewManager(baseURL, 64)
	dispatcher := stream.NewDispatcher(store, tracker)

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx, manager.Events())

	require.NoError(t, manager.Open(ctx, sess))
	t.Cleanup(func() {
		manager.Close()
		cancel()
	})

	return &testClient{
		session:  sess,
		store:    store,
		tracker:  tracker,
		manager:  manager,
		composer: compose.NewComposer(baseURL, sess, manager),
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, 10*time.Millisecond, msg)
}

func TestPublicMessageEchoesToAllStreams(t *testing.T) {
	srv, accountsSvc := newServer(t)
	_, err := accountsSvc.Create("alice", "pw", "")
	require.NoError(t, err)
	_, err = accountsSvc.Create("bob", "pw", "")
	require.NoError(t, err)

	alice := connect(t, srv.URL, "alice", "pw")
	bob := connect(t, srv.URL, "bob", "pw")

	alice.composer.SetText("hello room")
	require.NoError(t, alice.composer.Send(context.Background()))

	eventually(t, func() bool { return alice.store.Len() == 1 }, "sender sees own message via the stream")
	eventually(t, func() bool { return bob.store.Len() == 1 }, "other user receives the broadcast")

	got := bob.store.All()[0]
	assert.Equal(t, "alice", got.Sender)
	assert.Equal(t, "hello room", got.Text)
	assert.Equal(t, model.TypeText, got.Type)
	assert.False(t, got.IsPrivate)
	assert.NotEmpty(t, got.ID)
}

func TestPrivateMessageIsScopedToParties(t *testing.T) {
	srv, accountsSvc := newServer(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := accountsSvc.Create(name, "pw", "")
		require.NoError(t, err)
	}

	alice := connect(t, srv.URL, "alice", "pw")
	bob := connect(t, srv.URL, "bob", "pw")
	carol := connect(t, srv.URL, "carol", "pw")

	alice.composer.SetText("between us")
	alice.composer.SetRecipient(bob.session.User.ID)
	require.NoError(t, alice.composer.Send(context.Background()))

	eventually(t, func() bool { return len(bob.store.PrivateView()) == 1 }, "recipient gets the private message")
	eventually(t, func() bool { return len(alice.store.PrivateView()) == 1 }, "sender gets the echo")

	got := bob.store.PrivateView()[0]
	assert.Equal(t, "alice", got.Sender)
	assert.Equal(t, "bob", got.Recipient)
	assert.True(t, got.IsPrivate)

	// Give fan-out time to finish before asserting the negative.
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, carol.store.Len(), "third party must not see private traffic")
}

func TestInitReplaysOnlyVisibleHistory(t *testing.T) {
	srv, accountsSvc := newServer(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := accountsSvc.Create(name, "pw", "")
		require.NoError(t, err)
	}

	alice := connect(t, srv.URL, "alice", "pw")
	bob := connect(t, srv.URL, "bob", "pw")

	alice.composer.SetText("public one")
	require.NoError(t, alice.composer.Send(context.Background()))

	alice.composer.SetText("private one")
	alice.composer.SetRecipient(bob.session.User.ID)
	require.NoError(t, alice.composer.Send(context.Background()))

	eventually(t, func() bool { return bob.store.Len() == 2 }, "history settled before the late join")

	carol := connect(t, srv.URL, "carol", "pw")
	eventually(t, func() bool { return carol.store.Len() == 1 }, "late joiner replays public history")
	assert.Equal(t, "public one", carol.store.All()[0].Text)

	// A reconnecting participant gets their private history back.
	bobAgain := connect(t, srv.URL, "bob", "pw")
	eventually(t, func() bool { return bobAgain.store.Len() == 2 }, "participant replays private history")
}

func TestRosterTracksJoinsAndExcludesSelf(t *testing.T) {
	srv, accountsSvc := newServer(t)
	_, err := accountsSvc.Create("alice", "pw", "")
	require.NoError(t, err)
	_, err = accountsSvc.Create("bob", "pw", "")
	require.NoError(t, err)

	alice := connect(t, srv.URL, "alice", "pw")
	bob := connect(t, srv.URL, "bob", "pw")

	eventually(t, func() bool {
		roster := alice.tracker.Roster()
		return len(roster) == 1 && roster[0].Username == "bob"
	}, "alice sees bob and not herself")

	eventually(t, func() bool {
		roster := bob.tracker.Roster()
		return len(roster) == 1 && roster[0].Username == "alice"
	}, "bob sees alice and not himself")

	found, ok := alice.tracker.Find(bob.session.User.ID)
	require.True(t, ok)
	assert.Equal(t, "bob", found.Username)
}
