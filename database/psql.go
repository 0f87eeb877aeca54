package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type PsqlDB struct {
	pool    *sqlx.DB
	log     *zap.Logger
	connStr string
}

func NewPSQLDatabase(c *Config) (*PsqlDB, error) {
	db := &PsqlDB{
		log:     c.Log,
		connStr: c.ConnStr,
	}

	pool, err := sqlx.Connect("postgres", db.connStr)
	if err != nil {
		db.log.Error("unable to connect to db", zap.Error(err))
		return nil, err
	}
	db.pool = pool

	return db, nil
}

func (p *PsqlDB) Close() error {
	return p.pool.Close()
}

func (p *PsqlDB) CreateSchema(ctx context.Context) error {
	_, err := p.pool.ExecContext(ctx, Schema)
	return err
}

func (p *PsqlDB) Analyze(ctx context.Context) error {
	_, err := p.pool.ExecContext(ctx, "ANALYZE;")
	return err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

const collectibleColumns = `id, name, rarity, enabled, wild_card, collection_card, attack, health,
	ability_name, ability_description, regime, economy`

func (p *PsqlDB) ListCollectibles(ctx context.Context) ([]*Collectible, error) {
	var cs []*Collectible
	err := p.pool.SelectContext(ctx, &cs, "SELECT "+collectibleColumns+" FROM collectibles ORDER BY id;")
	if err != nil {
		return nil, err
	}
	return cs, nil
}

func (p *PsqlDB) GetCollectibleByName(ctx context.Context, name string) (*Collectible, error) {
	var c Collectible
	err := p.pool.GetContext(ctx, &c, "SELECT "+collectibleColumns+" FROM collectibles WHERE lower(name) = lower($1);", name)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (p *PsqlDB) CreateCollectible(ctx context.Context, c *Collectible) error {
	return p.pool.QueryRowxContext(ctx, `
		INSERT INTO collectibles (name, rarity, enabled, wild_card, collection_card, attack, health,
			ability_name, ability_description, regime, economy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id;`,
		c.Name, c.Rarity, c.Enabled, c.WildCard, c.CollectionCard, c.Attack, c.Health,
		c.AbilityName, c.AbilityDescription, c.Regime, c.Economy,
	).Scan(&c.ID)
}

func (p *PsqlDB) GetOrCreatePlayer(ctx context.Context, discordID string) (*Player, error) {
	var pl Player
	// the no-op update makes RETURNING work for existing rows too
	err := p.pool.GetContext(ctx, &pl, `
		INSERT INTO players (discord_id) VALUES ($1)
		ON CONFLICT (discord_id) DO UPDATE SET discord_id = EXCLUDED.discord_id
		RETURNING id, discord_id;`, discordID)
	if err != nil {
		return nil, fmt.Errorf("get or create player: %w", err)
	}
	return &pl, nil
}

func (p *PsqlDB) GetSpecialByName(ctx context.Context, name string) (*Special, error) {
	var s Special
	err := p.pool.GetContext(ctx, &s, "SELECT id, name, catch_phrase FROM specials WHERE lower(name) = lower($1);", name)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (p *PsqlDB) CreateSpecial(ctx context.Context, s *Special) error {
	return p.pool.QueryRowxContext(ctx,
		"INSERT INTO specials (name, catch_phrase) VALUES ($1, $2) RETURNING id;",
		s.Name, s.CatchPhrase,
	).Scan(&s.ID)
}

func (p *PsqlDB) CreateInstance(ctx context.Context, inst *Instance) error {
	return p.pool.QueryRowxContext(ctx, `
		INSERT INTO instances (collectible_id, player_id, shiny, attack_bonus, health_bonus, special_id,
			catch_date, spawned_at, server_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id;`,
		inst.CollectibleID, inst.PlayerID, inst.Shiny, inst.AttackBonus, inst.HealthBonus, inst.SpecialID,
		inst.CatchDate, inst.SpawnedAt, inst.ServerID,
	).Scan(&inst.ID)
}

func (p *PsqlDB) GetInstance(ctx context.Context, id int64) (*Instance, error) {
	var inst Instance
	err := p.pool.GetContext(ctx, &inst, `
		SELECT id, collectible_id, player_id, shiny, attack_bonus, health_bonus, special_id,
			catch_date, spawned_at, server_id
		FROM instances WHERE id = $1;`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &inst, nil
}

func (p *PsqlDB) CountInstances(ctx context.Context, playerID, collectibleID int64) (int, error) {
	var n int
	err := p.pool.GetContext(ctx, &n,
		"SELECT count(*) FROM instances WHERE player_id = $1 AND collectible_id = $2;",
		playerID, collectibleID)
	return n, err
}
