package spawn

import (
	"context"
	"sync"
	"time"

	"github.com/intrntsrfr/countrydex/database"
	"go.uber.org/zap"
)

type spawnFunc interface {
	Spawn(ctx context.Context, channelID string, def *database.Collectible) bool
}

type activity struct {
	messages  int
	lastSpawn time.Time
}

// AutoSpawner spawns a random collectible in a guild's configured channel
// once enough messages have been sent there and the cooldown has passed.
type AutoSpawner struct {
	spawner   spawnFunc
	channels  map[string]string
	threshold int
	cooldown  time.Duration
	log       *zap.Logger

	mu     sync.Mutex
	guilds map[string]*activity
	now    func() time.Time
}

func NewAutoSpawner(sp spawnFunc, channels map[string]string, threshold int, cooldown time.Duration, log *zap.Logger) *AutoSpawner {
	if threshold < 1 {
		threshold = 1
	}
	c := make(map[string]string, len(channels))
	for g, ch := range channels {
		c[g] = ch
	}
	return &AutoSpawner{
		spawner:   sp,
		channels:  c,
		threshold: threshold,
		cooldown:  cooldown,
		log:       log,
		guilds:    make(map[string]*activity),
		now:       time.Now,
	}
}

// Observe counts a message sent in guildID. It returns true if the message
// triggered a spawn attempt.
func (a *AutoSpawner) Observe(ctx context.Context, guildID string) bool {
	channelID, ok := a.channels[guildID]
	if !ok {
		return false
	}

	a.mu.Lock()
	act, ok := a.guilds[guildID]
	if !ok {
		act = &activity{}
		a.guilds[guildID] = act
	}
	act.messages++
	now := a.now()
	if act.messages < a.threshold || (!act.lastSpawn.IsZero() && now.Sub(act.lastSpawn) < a.cooldown) {
		a.mu.Unlock()
		return false
	}
	act.messages = 0
	act.lastSpawn = now
	a.mu.Unlock()

	if !a.spawner.Spawn(ctx, channelID, nil) {
		a.log.Warn("automatic spawn failed", zap.String("guild", guildID), zap.String("channel", channelID))
	}
	return true
}
