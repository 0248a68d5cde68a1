package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baladiya/citizen-portal/internal/rbac"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "portal_session", "secret", time.Hour, false), mr
}

func TestSessionRoundTrip(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())

	sess.SetUser(42, "agent@commune.ma", rbac.RoleDelegation, true)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, sess))
	assert.True(t, mr.Exists("session:"+sess.ID))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "portal_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), loaded.User())
	assert.Equal(t, rbac.RoleDelegation, loaded.Role())
	assert.True(t, loaded.Active())
	assert.Equal(t, "agent@commune.ma", loaded.Email())
}

func TestLookupMissingSession(t *testing.T) {
	sm, _ := newTestManager(t)
	_, err := sm.Lookup(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = sm.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDestroyAndRenew(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))
	oldID := sess.ID

	loaded, err := sm.Lookup(ctx, oldID)
	require.NoError(t, err)
	require.NoError(t, sm.Renew(ctx, loaded))
	assert.NotEqual(t, oldID, loaded.ID)
	assert.False(t, mr.Exists("session:"+oldID))

	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), loaded))
	sm.Destroy(loaded)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, loaded))
	assert.False(t, mr.Exists("session:"+loaded.ID))
	assert.Equal(t, -1, rr.Result().Cookies()[0].MaxAge)
}
