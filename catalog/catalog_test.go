package catalog

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/intrntsrfr/countrydex/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu  sync.Mutex
	cs  []*database.Collectible
	err error
}

func (f *fakeSource) ListCollectibles(_ context.Context) ([]*database.Collectible, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cs, f.err
}

func (f *fakeSource) set(cs []*database.Collectible) {
	f.mu.Lock()
	f.cs = cs
	f.mu.Unlock()
}

func col(id int64, name string, rarity float64, enabled bool) *database.Collectible {
	return &database.Collectible{ID: id, Name: name, Rarity: rarity, Enabled: enabled}
}

func TestRandomOnlyReturnsEnabled(t *testing.T) {
	f := gofakeit.New(1)
	var cs []*database.Collectible
	for i := int64(1); i <= 30; i++ {
		cs = append(cs, col(i, f.Country(), float64(f.Number(1, 20)), i%3 != 0))
	}
	c := NewStatic(cs)
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 1000; i++ {
		got, err := c.Random(r)
		require.NoError(t, err)
		assert.True(t, got.Enabled, got.Name)
	}
}

func TestRandomIsWeighted(t *testing.T) {
	c := NewStatic([]*database.Collectible{
		col(1, "France", 10, true),
		col(2, "Germany", 30, true),
		col(3, "Italy", 60, true),
		col(4, "Narnia", 1000, false),
	})
	r := rand.New(rand.NewPCG(42, 42))

	const draws = 100000
	counts := map[int64]int{}
	for i := 0; i < draws; i++ {
		got, err := c.Random(r)
		require.NoError(t, err)
		counts[got.ID]++
	}

	want := map[int64]float64{1: 0.1, 2: 0.3, 3: 0.6}
	for id, p := range want {
		freq := float64(counts[id]) / draws
		assert.InDelta(t, p, freq, 0.01, "collectible %d", id)
	}
	assert.Zero(t, counts[4])
}

func TestRandomNothingEnabled(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 1))
	tests := []struct {
		name string
		cs   []*database.Collectible
	}{
		{"empty", nil},
		{"all disabled", []*database.Collectible{col(1, "France", 10, false)}},
		{"zero weight", []*database.Collectible{col(1, "France", 0, true)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewStatic(tt.cs)
			for i := 0; i < 3; i++ {
				got, err := c.Random(r)
				assert.Nil(t, got)
				assert.ErrorIs(t, err, ErrNothingToSpawn)
			}
		})
	}
}

func TestSingleEnabledAlwaysPicked(t *testing.T) {
	c := NewStatic([]*database.Collectible{col(1, "France", 10, true)})
	r := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 100; i++ {
		got, err := c.Random(r)
		require.NoError(t, err)
		assert.Equal(t, "France", got.Name)
	}
}

func TestByName(t *testing.T) {
	c := NewStatic([]*database.Collectible{col(1, "France", 10, true)})

	got, ok := c.ByName("  fRaNcE ")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.ID)

	_, ok = c.ByName("Prussia")
	assert.False(t, ok)

	got, ok = c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "France", got.Name)
}

func TestReload(t *testing.T) {
	src := &fakeSource{cs: []*database.Collectible{col(1, "France", 10, true)}}
	c := New(src)
	assert.Equal(t, 0, c.Len(), "nothing is read before the first reload")

	require.NoError(t, c.Reload(context.Background()))
	assert.Equal(t, 1, c.Len())

	src.set([]*database.Collectible{col(1, "France", 10, true), col(2, "Spain", 5, true)})
	_, ok := c.ByName("Spain")
	assert.False(t, ok, "stale until reloaded")

	require.NoError(t, c.Reload(context.Background()))
	_, ok = c.ByName("Spain")
	assert.True(t, ok)
}

func TestReloadErrorKeepsSnapshot(t *testing.T) {
	src := &fakeSource{cs: []*database.Collectible{col(1, "France", 10, true)}}
	c := New(src)
	require.NoError(t, c.Reload(context.Background()))

	src.err = errors.New("db down")
	assert.Error(t, c.Reload(context.Background()))
	assert.Equal(t, 1, c.Len())
}

func TestReloadConcurrentReads(t *testing.T) {
	small := []*database.Collectible{col(1, "France", 1, true)}
	big := []*database.Collectible{col(1, "France", 1, true), col(2, "Spain", 1, true), col(3, "Italy", 1, true)}
	src := &fakeSource{cs: small}
	c := New(src)
	require.NoError(t, c.Reload(context.Background()))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			r := rand.New(rand.NewPCG(seed, seed))
			for {
				select {
				case <-stop:
					return
				default:
				}
				// a snapshot is either the small or the big one, never a mix
				n := len(c.All())
				assert.True(t, n == 1 || n == 3, "partial snapshot of %d", n)
				_, err := c.Random(r)
				assert.NoError(t, err)
			}
		}(uint64(i))
	}

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			src.set(big)
		} else {
			src.set(small)
		}
		require.NoError(t, c.Reload(context.Background()))
	}
	close(stop)
	wg.Wait()
}
