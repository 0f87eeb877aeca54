package spawn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/countrydex/catalog"
	"github.com/intrntsrfr/countrydex/database"
	"github.com/intrntsrfr/countrydex/kvstore"
	"github.com/intrntsrfr/countrydex/mint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeChannel struct {
	mu       sync.Mutex
	perms    int64
	sendErr  error
	sent     []*discordgo.MessageSend
	files    []string
	disabled []string
}

func (c *fakeChannel) Guild(channelID string) (string, error) { return "guild-1", nil }

func (c *fakeChannel) Permissions(channelID string) (int64, error) { return c.perms, nil }

func (c *fakeChannel) Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	for _, f := range msg.Files {
		c.files = append(c.files, f.Name)
	}
	c.sent = append(c.sent, msg)
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", len(c.sent)), ChannelID: channelID}, nil
}

func (c *fakeChannel) DisableButtons(channelID, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = append(c.disabled, messageID)
	return nil
}

func (c *fakeChannel) disabledCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.disabled)
}

type failingMinter struct{}

func (failingMinter) Mint(context.Context, *database.Collectible, string, mint.Options) (*mint.Result, error) {
	return nil, errors.New("database is down")
}

type fixture struct {
	spawner *Spawner
	channel *fakeChannel
	store   *kvstore.Store
	db      *database.JsonDB
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	store, err := kvstore.NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	db, err := database.NewJsonDatabase("")
	require.NoError(t, err)
	france := &database.Collectible{
		Name: "France", Rarity: 1, Enabled: true, WildCard: "/static/france.png",
		Attack: 50, Health: 100,
	}
	require.NoError(t, db.CreateCollectible(context.Background(), france))

	core, logs := observer.New(zapcore.DebugLevel)
	ch := &fakeChannel{perms: discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles}
	sp := New(&Config{
		Catalog:  catalog.NewStatic([]*database.Collectible{france}),
		Sessions: store,
		Minter:   mint.New(db, rand.New(rand.NewPCG(1, 2))),
		Channel:  ch,
		Artwork: func(path string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("png")), nil
		},
		CollectibleName: "countryball",
		ClaimTimeout:    timeout,
		Log:             zap.New(core),
		Rand:            rand.New(rand.NewPCG(3, 4)),
	})
	t.Cleanup(sp.Close)
	return &fixture{spawner: sp, channel: ch, store: store, db: db, logs: logs}
}

// spawnOne spawns France and returns its session id.
func (f *fixture) spawnOne(t *testing.T) string {
	t.Helper()
	require.True(t, f.spawner.Spawn(context.Background(), "chan-1", nil))
	f.channel.mu.Lock()
	defer f.channel.mu.Unlock()
	msg := f.channel.sent[len(f.channel.sent)-1]
	button := msg.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	require.True(t, strings.HasPrefix(button.CustomID, CatchPrefix))
	return strings.TrimPrefix(button.CustomID, CatchPrefix)
}

func TestSpawnPostsMessage(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.spawnOne(t)

	msg := f.channel.sent[0]
	assert.Contains(t, f.spawner.announcements(), msg.Content)
	assert.Regexp(t, regexp.MustCompile(`^nt_[A-Za-z]{15}\.png$`), f.channel.files[0])

	button := msg.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	assert.Equal(t, "Catch me!", button.Label)
	assert.False(t, button.Disabled)

	sess, err := f.store.GetSpawn(id)
	require.NoError(t, err)
	assert.Equal(t, kvstore.StateOpen, sess.State)
	assert.Equal(t, "msg-1", sess.MessageID)
	assert.Equal(t, "guild-1", sess.GuildID)
	assert.Equal(t, "France", sess.Name)
}

func TestAnnouncementsTitleCased(t *testing.T) {
	f := newFixture(t, time.Minute)
	pool := f.spawner.announcements()
	require.Len(t, pool, 11)
	assert.Equal(t, "A wild Countryball appeared!", pool[0])
	assert.Equal(t, "No way! This is a wild Countryball!", pool[5])
}

func TestSpawnMissingPermission(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.channel.perms = discordgo.PermissionSendMessages

	assert.False(t, f.spawner.Spawn(context.Background(), "chan-1", nil))
	assert.Empty(t, f.channel.sent)
	assert.Equal(t, 1, f.logs.FilterMessage("missing permission to spawn in channel").Len())
	assert.Equal(t, zapcore.ErrorLevel, f.logs.All()[0].Level)
}

func TestSpawnDeliveryFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		log  string
	}{
		{
			"forbidden",
			&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}},
			"missing permission to spawn in channel",
		},
		{"other", errors.New("connection reset"), "failed to spawn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, time.Minute)
			f.channel.sendErr = tt.err

			assert.NotPanics(t, func() {
				assert.False(t, f.spawner.Spawn(context.Background(), "chan-1", nil))
			})
			assert.Equal(t, 1, f.logs.FilterMessage(tt.log).Len())
		})
	}
}

func TestSpawnEmptyCatalog(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.spawner.catalog = catalog.NewStatic(nil)
	assert.False(t, f.spawner.Spawn(context.Background(), "chan-1", nil))
	assert.Empty(t, f.channel.sent)
}

func TestSpawnN(t *testing.T) {
	f := newFixture(t, time.Minute)
	assert.Equal(t, 3, f.spawner.SpawnN(context.Background(), "chan-1", nil, 3))
	assert.Len(t, f.channel.sent, 3)
}

func TestClaimFrance(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.spawnOne(t)
	ctx := context.Background()

	res, err := f.spawner.Claim(ctx, id, "guild-1", "alice", "Germany")
	require.NoError(t, err)
	assert.Equal(t, WrongName, res.Outcome)

	res, err = f.spawner.Claim(ctx, id, "guild-1", "alice", "  fRaNcE ")
	require.NoError(t, err)
	require.Equal(t, Caught, res.Outcome)
	assert.Equal(t, "France", res.Collectible.Name)
	assert.True(t, res.FirstOfKind)
	assert.Equal(t, "guild-1", res.Instance.ServerID.String)
	assert.True(t, res.Instance.SpawnedAt.Valid)
	assert.Contains(t, res.Reply("alice", "Countryball"), "You caught **France!**")
	assert.Contains(t, res.Reply("alice", "Countryball"), "new countryball")
	assert.Equal(t, 1, f.channel.disabledCount())

	res, err = f.spawner.Claim(ctx, id, "guild-1", "bob", "France")
	require.NoError(t, err)
	assert.Equal(t, AlreadyCaught, res.Outcome)

	player, err := f.db.GetOrCreatePlayer(ctx, "bob")
	require.NoError(t, err)
	n, err := f.db.CountInstances(ctx, player.ID, res.Collectible.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClaimRace(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.spawnOne(t)

	const racers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[Outcome]int{}
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.spawner.Claim(context.Background(), id, "guild-1", fmt.Sprintf("user-%d", i), "france")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			results[res.Outcome]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, results[Caught])
	assert.Equal(t, racers-1, results[AlreadyCaught])
}

func TestClaimExpired(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.spawnOne(t)

	f.spawner.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	res, err := f.spawner.Claim(context.Background(), id, "guild-1", "alice", "France")
	require.NoError(t, err)
	assert.Equal(t, Expired, res.Outcome)

	res, err = f.spawner.Claim(context.Background(), "no-such-session", "guild-1", "alice", "France")
	require.NoError(t, err)
	assert.Equal(t, Expired, res.Outcome)
}

func TestSpawnerExpiredBeforeTimer(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.spawnOne(t)

	sess, err := f.store.GetSpawn(id)
	require.NoError(t, err)
	assert.False(t, f.spawner.Expired(sess))

	f.spawner.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.True(t, f.spawner.Expired(sess), "window passed, timer still pending")
	assert.Equal(t, kvstore.StateOpen, sess.State)

	sess.State = kvstore.StateClaimed
	assert.False(t, f.spawner.Expired(sess))
}

func TestExpiryTimerDisablesButton(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	id := f.spawnOne(t)

	require.Eventually(t, func() bool {
		sess, err := f.store.GetSpawn(id)
		return err == nil && sess.State == kvstore.StateExpired
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return f.channel.disabledCount() == 1 }, time.Second, 10*time.Millisecond)

	res, err := f.spawner.Claim(context.Background(), id, "guild-1", "alice", "France")
	require.NoError(t, err)
	assert.Equal(t, Expired, res.Outcome)
}

func TestClaimMintFailureReopens(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.spawnOne(t)
	f.spawner.minter = failingMinter{}

	_, err := f.spawner.Claim(context.Background(), id, "guild-1", "alice", "France")
	require.Error(t, err)

	sess, err := f.store.GetSpawn(id)
	require.NoError(t, err)
	assert.Equal(t, kvstore.StateOpen, sess.State)
	assert.Empty(t, sess.ClaimedBy)
	assert.Zero(t, f.channel.disabledCount())
}

func TestMatches(t *testing.T) {
	tests := []struct {
		guess, name string
		want        bool
	}{
		{"France", "France", true},
		{"france", "France", true},
		{"  FRANCE\t", "France", true},
		{"united   kingdom", "United Kingdom", true},
		{"Frances", "France", false},
		{"", "France", false},
		{"Fr ance", "France", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.guess, tt.name), "%q vs %q", tt.guess, tt.name)
	}
}
