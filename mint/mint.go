package mint

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/intrntsrfr/countrydex/database"
)

const (
	ShinyOdds = 512
	MinBonus  = -35
	MaxBonus  = 40
)

// Options tweak a minted instance. Nil fields are randomised.
type Options struct {
	Shiny       *bool
	AttackBonus *int
	HealthBonus *int
	Special     *database.Special
	ServerID    string
	SpawnedAt   time.Time
}

// Store is the part of the database the minter needs.
type Store interface {
	GetOrCreatePlayer(ctx context.Context, discordID string) (*database.Player, error)
	CreateInstance(ctx context.Context, inst *database.Instance) error
	CountInstances(ctx context.Context, playerID, collectibleID int64) (int, error)
}

type Minter struct {
	db  Store
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func New(db Store, rng *rand.Rand) *Minter {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Minter{db: db, rng: rng, now: time.Now}
}

// Result is a freshly minted instance along with its owner.
type Result struct {
	Instance *database.Instance
	Player   *database.Player
	// FirstOfKind is set when this is the player's first instance of the collectible.
	FirstOfKind bool
}

// Mint creates a new instance of c owned by discordUserID.
func (m *Minter) Mint(ctx context.Context, c *database.Collectible, discordUserID string, opts Options) (*Result, error) {
	player, err := m.db.GetOrCreatePlayer(ctx, discordUserID)
	if err != nil {
		return nil, err
	}

	inst := &database.Instance{
		CollectibleID: c.ID,
		PlayerID:      player.ID,
		CatchDate:     m.now(),
	}

	m.mu.Lock()
	inst.Shiny = m.shiny(opts.Shiny)
	inst.AttackBonus = m.bonus(opts.AttackBonus)
	inst.HealthBonus = m.bonus(opts.HealthBonus)
	m.mu.Unlock()

	if opts.Special != nil {
		inst.SpecialID = sql.NullInt64{Int64: opts.Special.ID, Valid: true}
	}
	if opts.ServerID != "" {
		inst.ServerID = sql.NullString{String: opts.ServerID, Valid: true}
	}
	if !opts.SpawnedAt.IsZero() {
		inst.SpawnedAt = sql.NullTime{Time: opts.SpawnedAt, Valid: true}
	}

	if err := m.db.CreateInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	res := &Result{Instance: inst, Player: player}
	if n, err := m.db.CountInstances(ctx, player.ID, c.ID); err == nil {
		res.FirstOfKind = n == 1
	}
	return res, nil
}

func (m *Minter) shiny(v *bool) bool {
	if v != nil {
		return *v
	}
	return m.rng.IntN(ShinyOdds) == 0
}

func (m *Minter) bonus(v *int) int {
	if v != nil {
		return *v
	}
	return MinBonus + m.rng.IntN(MaxBonus-MinBonus+1)
}

// StatLine formats the bonuses the way the audit log and replies show them.
func StatLine(inst *database.Instance, special *database.Special) string {
	name := "None"
	if special != nil {
		name = special.Name
	}
	return fmt.Sprintf("Special=%v ATK=%+d HP=%+d shiny=%v", name, inst.AttackBonus, inst.HealthBonus, inst.Shiny)
}
