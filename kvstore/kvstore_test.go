package kvstore

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSession() *Session {
	return &Session{
		ID:            uuid.NewString(),
		CollectibleID: 1,
		Name:          "France",
		GuildID:       "10",
		State:         StateOpen,
		CreatedAt:     time.Now(),
	}
}

func TestPutGetSpawn(t *testing.T) {
	s := newTestStore(t)
	sess := newSession()
	require.NoError(t, s.PutSpawn(sess, time.Minute))

	got, err := s.GetSpawn(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "France", got.Name)
	assert.Equal(t, StateOpen, got.State)

	require.NoError(t, s.SetSpawnMessage(sess.ID, "20", "30"))
	got, err = s.GetSpawn(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "20", got.ChannelID)
	assert.Equal(t, "30", got.MessageID)

	_, err = s.GetSpawn("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.DeleteSpawn(sess.ID))
	_, err = s.GetSpawn(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestClaimSpawnOnce(t *testing.T) {
	s := newTestStore(t)
	sess := newSession()
	require.NoError(t, s.PutSpawn(sess, time.Minute))

	ok, got, err := s.ClaimSpawn(sess.ID, "alice", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateClaimed, got.State)
	assert.Equal(t, "alice", got.ClaimedBy)

	ok, got, err = s.ClaimSpawn(sess.ID, "bob", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "alice", got.ClaimedBy)

	_, _, err = s.ClaimSpawn("missing", "bob", time.Now())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestClaimSpawnConcurrent(t *testing.T) {
	s := newTestStore(t)
	sess := newSession()
	require.NoError(t, s.PutSpawn(sess, time.Minute))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ok, _, err := s.ClaimSpawn(sess.ID, uuid.NewString(), time.Now())
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestReopenAndExpire(t *testing.T) {
	s := newTestStore(t)
	sess := newSession()
	require.NoError(t, s.PutSpawn(sess, time.Minute))

	ok, _, err := s.ClaimSpawn(sess.ID, "alice", time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	ok, _, err = s.ExpireSpawn(sess.ID)
	require.NoError(t, err)
	assert.False(t, ok, "claimed sessions do not expire")

	require.NoError(t, s.ReopenSpawn(sess.ID))
	got, err := s.GetSpawn(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, got.State)
	assert.Empty(t, got.ClaimedBy)

	ok, got, err = s.ExpireSpawn(sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StateExpired, got.State)

	ok, _, err = s.ClaimSpawn(sess.ID, "bob", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		sess Session
		want bool
	}{
		{"fresh", Session{State: StateOpen, CreatedAt: now}, false},
		{"old and open", Session{State: StateOpen, CreatedAt: now.Add(-10 * time.Minute)}, true},
		{"old but claimed", Session{State: StateClaimed, CreatedAt: now.Add(-10 * time.Minute)}, false},
		{"marked expired", Session{State: StateExpired, CreatedAt: now}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sess.Expired(now, 5*time.Minute))
		})
	}
}
