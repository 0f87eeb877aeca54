package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ DB = (*JsonDB)(nil)
	_ DB = (*PsqlDB)(nil)
)

func france() *Collectible {
	return &Collectible{
		Name:           "France",
		Rarity:         10,
		Enabled:        true,
		WildCard:       "/static/france_wild.png",
		CollectionCard: "/static/france_card.png",
		Attack:         50,
		Health:         120,
		Regime:         RegimeDemocracy,
		Economy:        EconomyCapitalist,
	}
}

func TestJsonDBCollectibles(t *testing.T) {
	ctx := context.Background()
	db, err := NewJsonDatabase("")
	require.NoError(t, err)

	c := france()
	require.NoError(t, db.CreateCollectible(ctx, c))
	assert.NotZero(t, c.ID)
	assert.Error(t, db.CreateCollectible(ctx, france()), "names are unique")

	got, err := db.GetCollectibleByName(ctx, "FRANCE")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = db.GetCollectibleByName(ctx, "Narnia")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := db.ListCollectibles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestJsonDBGetOrCreatePlayerIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := NewJsonDatabase("")
	require.NoError(t, err)

	a, err := db.GetOrCreatePlayer(ctx, "1234")
	require.NoError(t, err)
	b, err := db.GetOrCreatePlayer(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	c, err := db.GetOrCreatePlayer(ctx, "5678")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestJsonDBInstances(t *testing.T) {
	ctx := context.Background()
	db, err := NewJsonDatabase("")
	require.NoError(t, err)

	c := france()
	require.NoError(t, db.CreateCollectible(ctx, c))
	p, err := db.GetOrCreatePlayer(ctx, "1")
	require.NoError(t, err)

	inst := &Instance{CollectibleID: c.ID, PlayerID: p.ID, AttackBonus: 3, HealthBonus: -4, CatchDate: time.Now()}
	require.NoError(t, db.CreateInstance(ctx, inst))

	got, err := db.GetInstance(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, 53, got.Attack(c))
	assert.Equal(t, 116, got.Health(c))

	n, err := db.CountInstances(ctx, p.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, db.CreateInstance(ctx, &Instance{CollectibleID: 999, PlayerID: p.ID}), ErrNotFound)
}

func TestJsonDBPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	db, err := NewJsonDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.CreateCollectible(ctx, france()))
	require.NoError(t, db.CreateSpecial(ctx, &Special{Name: "Hanukkah"}))
	require.NoError(t, db.Close())

	db, err = NewJsonDatabase(path)
	require.NoError(t, err)
	all, err := db.ListCollectibles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "France", all[0].Name)

	s, err := db.GetSpecialByName(ctx, "hanukkah")
	require.NoError(t, err)
	assert.Equal(t, "Hanukkah", s.Name)
}

func TestJsonDBSavesEveryWrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	db, err := NewJsonDatabase(path)
	require.NoError(t, err)
	c := france()
	require.NoError(t, db.CreateCollectible(ctx, c))
	p, err := db.GetOrCreatePlayer(ctx, "1")
	require.NoError(t, err)
	inst := &Instance{CollectibleID: c.ID, PlayerID: p.ID, Shiny: true, CatchDate: time.Now()}
	require.NoError(t, db.CreateInstance(ctx, inst))
	require.NoError(t, db.CreateSpecial(ctx, &Special{Name: "Hanukkah"}))

	// no Close: a crash right now must not lose anything
	reopened, err := NewJsonDatabase(path)
	require.NoError(t, err)

	got, err := reopened.GetInstance(ctx, inst.ID)
	require.NoError(t, err)
	assert.True(t, got.Shiny)
	assert.Equal(t, p.ID, got.PlayerID)

	again, err := reopened.GetOrCreatePlayer(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	_, err = reopened.GetSpecialByName(ctx, "hanukkah")
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are renamed into place")
	assert.Equal(t, "data.json", entries[0].Name())
}

func TestJsonDBFailedSaveRollsBack(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "missing", "data.json")

	db, err := NewJsonDatabase(path)
	require.NoError(t, err)
	assert.Error(t, db.CreateCollectible(ctx, france()))

	all, err := db.ListCollectibles(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
