// Package spawn posts wild collectibles into channels and adjudicates who
// catches them.
package spawn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/intrntsrfr/countrydex/catalog"
	"github.com/intrntsrfr/countrydex/database"
	"github.com/intrntsrfr/countrydex/kvstore"
	"github.com/intrntsrfr/countrydex/metrics"
	"github.com/intrntsrfr/countrydex/mint"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// CatchPrefix prefixes the custom ID of the button on a spawn message.
	CatchPrefix = "catch:"
	// ModalPrefix prefixes the custom ID of the modal opened by that button.
	ModalPrefix = "catchmodal:"

	DefaultClaimTimeout = 5 * time.Minute

	requiredPerms = discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles
	letters       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Channel is the chat platform as seen by the spawner.
type Channel interface {
	Guild(channelID string) (string, error)
	Permissions(channelID string) (int64, error)
	Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
	DisableButtons(channelID, messageID string) error
}

// Sessions persists spawn sessions. *kvstore.Store implements it.
type Sessions interface {
	PutSpawn(sess *kvstore.Session, ttl time.Duration) error
	GetSpawn(id string) (*kvstore.Session, error)
	DeleteSpawn(id string) error
	SetSpawnMessage(id, channelID, messageID string) error
	ClaimSpawn(id, userID string, at time.Time) (bool, *kvstore.Session, error)
	ReopenSpawn(id string) error
	ExpireSpawn(id string) (bool, *kvstore.Session, error)
}

type Minter interface {
	Mint(ctx context.Context, c *database.Collectible, discordUserID string, opts mint.Options) (*mint.Result, error)
}

// Opener opens artwork referenced by a collectible.
type Opener func(path string) (io.ReadCloser, error)

// DirOpener opens artwork relative to root.
func DirOpener(root string) Opener {
	return func(path string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(path, "/"))))
	}
}

type Config struct {
	Catalog         *catalog.Catalog
	Sessions        Sessions
	Minter          Minter
	Channel         Channel
	Artwork         Opener
	CollectibleName string
	ClaimTimeout    time.Duration
	Log             *zap.Logger
	Metrics         *metrics.Metrics
	Rand            *rand.Rand
}

type Spawner struct {
	catalog  *catalog.Catalog
	sessions Sessions
	minter   Minter
	channel  Channel
	artwork  Opener
	name     string
	timeout  time.Duration
	log      *zap.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	rng    *rand.Rand
	timers map[string]*time.Timer
	now    func() time.Time
}

func New(c *Config) *Spawner {
	rng := c.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	timeout := c.ClaimTimeout
	if timeout <= 0 {
		timeout = DefaultClaimTimeout
	}
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	name := c.CollectibleName
	if name == "" {
		name = "countryball"
	}
	return &Spawner{
		catalog:  c.Catalog,
		sessions: c.Sessions,
		minter:   c.Minter,
		channel:  c.Channel,
		artwork:  c.Artwork,
		name:     cases.Title(language.English).String(name),
		timeout:  timeout,
		log:      log,
		metrics:  c.Metrics,
		rng:      rng,
		timers:   make(map[string]*time.Timer),
		now:      time.Now,
	}
}

// DisplayName is the title-cased collectible name used in messages.
func (s *Spawner) DisplayName() string {
	return s.name
}

func (s *Spawner) announcements() []string {
	return []string{
		fmt.Sprintf("A wild %v appeared!", s.name),
		fmt.Sprintf("A wild %v appeared!", s.name),
		fmt.Sprintf("A wild %v appeared!", s.name),
		fmt.Sprintf("A wild %v appeared!", s.name),
		fmt.Sprintf("A wild %v appeared!", s.name),
		fmt.Sprintf("No way! This is a wild %v!", s.name),
		fmt.Sprintf("No way! This is a wild %v!", s.name),
		fmt.Sprintf("No way! This is a wild %v!", s.name),
		fmt.Sprintf("No way! This is a wild %v!", s.name),
		fmt.Sprintf("No way! This is a wild %v!", s.name),
		"No way! This one brought its own national anthem!",
	}
}

func (s *Spawner) announcement() string {
	pool := s.announcements()
	s.mu.Lock()
	defer s.mu.Unlock()
	return pool[s.rng.IntN(len(pool))]
}

func (s *Spawner) fileName(wildCard string) string {
	ext := strings.TrimPrefix(filepath.Ext(wildCard), ".")
	if ext == "" {
		ext = "png"
	}
	b := make([]byte, 15)
	s.mu.Lock()
	for i := range b {
		b[i] = letters[s.rng.IntN(len(letters))]
	}
	s.mu.Unlock()
	return fmt.Sprintf("nt_%s.%s", b, ext)
}

// Expired reports whether sess can no longer be claimed, even if its
// expiry timer has not fired yet.
func (s *Spawner) Expired(sess *kvstore.Session) bool {
	return sess.Expired(s.now(), s.timeout)
}

// Random draws a collectible from the catalog.
func (s *Spawner) Random() (*database.Collectible, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Random(s.rng)
}

// Spawn posts def, or a random collectible when def is nil, into channelID.
// It reports whether the collectible was posted; failures are logged.
func (s *Spawner) Spawn(ctx context.Context, channelID string, def *database.Collectible) bool {
	ok := s.spawn(ctx, channelID, def)
	if ok {
		s.metrics.Spawn("ok")
	} else {
		s.metrics.Spawn("failed")
	}
	return ok
}

func (s *Spawner) spawn(ctx context.Context, channelID string, def *database.Collectible) bool {
	if def == nil {
		var err error
		if def, err = s.Random(); err != nil {
			s.log.Error("failed to pick a collectible", zap.Error(err))
			return false
		}
	}
	log := s.log.With(zap.String("channel", channelID), zap.String("collectible", def.Name))

	perms, err := s.channel.Permissions(channelID)
	if err != nil {
		log.Error("failed to resolve permissions", zap.Error(err))
		return false
	}
	if perms&requiredPerms != requiredPerms {
		log.Error("missing permission to spawn in channel")
		return false
	}

	guildID, err := s.channel.Guild(channelID)
	if err != nil {
		log.Error("failed to resolve guild", zap.Error(err))
		return false
	}

	f, err := s.artwork(def.WildCard)
	if err != nil {
		log.Error("failed to open artwork", zap.String("path", def.WildCard), zap.Error(err))
		return false
	}
	defer f.Close()

	sess := &kvstore.Session{
		ID:            uuid.NewString(),
		CollectibleID: def.ID,
		Name:          def.Name,
		GuildID:       guildID,
		ChannelID:     channelID,
		State:         kvstore.StateOpen,
		CreatedAt:     s.now(),
	}
	if err := s.sessions.PutSpawn(sess, 2*s.timeout); err != nil {
		log.Error("failed to store spawn session", zap.Error(err))
		return false
	}

	msg, err := s.channel.Send(channelID, &discordgo.MessageSend{
		Content: s.announcement(),
		Files: []*discordgo.File{{
			Name:   s.fileName(def.WildCard),
			Reader: f,
		}},
		Components: []discordgo.MessageComponent{catchRow(sess.ID, false)},
	})
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden {
			log.Error("missing permission to spawn in channel", zap.Error(err))
		} else {
			log.Error("failed to spawn", zap.Error(err))
		}
		if err := s.sessions.DeleteSpawn(sess.ID); err != nil {
			log.Warn("failed to drop spawn session", zap.Error(err))
		}
		return false
	}

	if err := s.sessions.SetSpawnMessage(sess.ID, channelID, msg.ID); err != nil {
		log.Warn("failed to record spawn message", zap.Error(err))
	}
	s.arm(sess.ID, s.timeout)

	log.Info("spawned", zap.String("session", sess.ID))
	return true
}

// SpawnN spawns n collectibles and returns how many were posted. A nil def
// draws a new random collectible for every spawn.
func (s *Spawner) SpawnN(ctx context.Context, channelID string, def *database.Collectible, n int) int {
	spawned := 0
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		if s.Spawn(ctx, channelID, def) {
			spawned++
		}
	}
	return spawned
}

// catchRow is the action row holding the catch button.
func catchRow(sessionID string, disabled bool) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Catch me!",
				Style:    discordgo.PrimaryButton,
				CustomID: CatchPrefix + sessionID,
				Disabled: disabled,
			},
		},
	}
}

// DisabledComponents replaces the catch button with a disabled one.
func DisabledComponents(sessionID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{catchRow(sessionID, true)}
}

func (s *Spawner) arm(id string, after time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(after, func() { s.expire(id) })
}

func (s *Spawner) disarm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Spawner) expire(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	ok, sess, err := s.sessions.ExpireSpawn(id)
	if err != nil {
		if !errors.Is(err, kvstore.ErrSessionNotFound) {
			s.log.Error("failed to expire spawn", zap.String("session", id), zap.Error(err))
		}
		return
	}
	if !ok {
		return
	}
	s.metrics.Claim(Expired.String())
	if sess.MessageID == "" {
		return
	}
	if err := s.channel.DisableButtons(sess.ChannelID, sess.MessageID); err != nil {
		s.log.Warn("failed to disable catch button", zap.String("session", id), zap.Error(err))
	}
}

// Close stops all pending expiry timers.
func (s *Spawner) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
