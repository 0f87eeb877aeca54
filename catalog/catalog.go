package catalog

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync/atomic"

	"github.com/intrntsrfr/countrydex/database"
)

var ErrNothingToSpawn = errors.New("no collectible to spawn")

// Source is where the catalog reads collectibles from.
type Source interface {
	ListCollectibles(ctx context.Context) ([]*database.Collectible, error)
}

// Catalog is the in-memory collectible registry. Reads never block; Reload
// swaps in a whole new snapshot.
type Catalog struct {
	src  Source
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	all     []*database.Collectible
	byID    map[int64]*database.Collectible
	byName  map[string]*database.Collectible
	enabled []*database.Collectible
	total   float64
}

func newSnapshot(cs []*database.Collectible) *snapshot {
	s := &snapshot{
		all:    cs,
		byID:   make(map[int64]*database.Collectible, len(cs)),
		byName: make(map[string]*database.Collectible, len(cs)),
	}
	for _, c := range cs {
		s.byID[c.ID] = c
		s.byName[strings.ToLower(c.Name)] = c
		if c.Enabled && c.Rarity > 0 {
			s.enabled = append(s.enabled, c)
			s.total += c.Rarity
		}
	}
	return s
}

func New(src Source) *Catalog {
	c := &Catalog{src: src}
	c.snap.Store(newSnapshot(nil))
	return c
}

// NewStatic builds a catalog from a fixed list. Reload on it is a no-op.
func NewStatic(cs []*database.Collectible) *Catalog {
	c := &Catalog{}
	c.snap.Store(newSnapshot(cs))
	return c
}

// Reload reads every collectible from the source again.
func (c *Catalog) Reload(ctx context.Context) error {
	if c.src == nil {
		return nil
	}
	cs, err := c.src.ListCollectibles(ctx)
	if err != nil {
		return err
	}
	c.snap.Store(newSnapshot(cs))
	return nil
}

// Random picks an enabled collectible, weighted by rarity.
func (c *Catalog) Random(r *rand.Rand) (*database.Collectible, error) {
	s := c.snap.Load()
	if len(s.enabled) == 0 {
		return nil, ErrNothingToSpawn
	}

	x := r.Float64() * s.total
	for _, col := range s.enabled {
		x -= col.Rarity
		if x < 0 {
			return col, nil
		}
	}
	// float rounding
	return s.enabled[len(s.enabled)-1], nil
}

func (c *Catalog) Get(id int64) (*database.Collectible, bool) {
	col, ok := c.snap.Load().byID[id]
	return col, ok
}

// ByName looks a collectible up case-insensitively.
func (c *Catalog) ByName(name string) (*database.Collectible, bool) {
	col, ok := c.snap.Load().byName[strings.ToLower(strings.TrimSpace(name))]
	return col, ok
}

func (c *Catalog) All() []*database.Collectible {
	return c.snap.Load().all
}

func (c *Catalog) Len() int {
	return len(c.snap.Load().all)
}
