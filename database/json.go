package database

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//
// JSON implementation DB
//

type JsonDB struct {
	path  string
	state *state
}

type state struct {
	sync.Mutex `json:"-"`

	Collectibles map[int64]*Collectible `json:"collectibles"`
	Players      map[int64]*Player      `json:"players"`
	Specials     map[int64]*Special     `json:"specials"`
	Instances    map[int64]*Instance    `json:"instances"`
	LastID       int64                  `json:"last_id"`
}

func newState() *state {
	return &state{
		Collectibles: make(map[int64]*Collectible),
		Players:      make(map[int64]*Player),
		Specials:     make(map[int64]*Special),
		Instances:    make(map[int64]*Instance),
	}
}

// NewJsonDatabase opens the JSON database at path. An empty path keeps
// everything in memory.
func NewJsonDatabase(path string) (*JsonDB, error) {
	db := &JsonDB{
		path:  path,
		state: newState(),
	}
	err := db.load(path)
	return db, err
}

func (j *JsonDB) Close() error {
	return j.save()
}

func (j *JsonDB) load(path string) error {
	if path == "" {
		return nil
	}
	d, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// file does not exist, so use default
		return nil
	}
	if err != nil {
		return err
	}

	st := newState()
	if err := json.Unmarshal(d, st); err != nil {
		return err
	}
	j.state = st
	return nil
}

func (j *JsonDB) save() error {
	j.state.Lock()
	defer j.state.Unlock()
	return j.saveLocked()
}

// saveLocked writes the state to a temporary file next to path and renames
// it over path. The state lock must be held.
func (j *JsonDB) saveLocked() error {
	if j.path == "" {
		return nil
	}
	d, err := json.Marshal(j.state)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(j.path), filepath.Base(j.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(d); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, j.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (j *JsonDB) CreateSchema(_ context.Context) error {
	return nil
}

// Analyze flushes the state to disk.
func (j *JsonDB) Analyze(_ context.Context) error {
	return j.save()
}

func (j *JsonDB) nextID() int64 {
	j.state.LastID++
	return j.state.LastID
}

func (j *JsonDB) ListCollectibles(_ context.Context) ([]*Collectible, error) {
	j.state.Lock()
	defer j.state.Unlock()
	cs := make([]*Collectible, 0, len(j.state.Collectibles))
	for _, c := range j.state.Collectibles {
		cp := *c
		cs = append(cs, &cp)
	}
	sort.Slice(cs, func(a, b int) bool { return cs[a].ID < cs[b].ID })
	return cs, nil
}

func (j *JsonDB) GetCollectibleByName(_ context.Context, name string) (*Collectible, error) {
	j.state.Lock()
	defer j.state.Unlock()
	for _, c := range j.state.Collectibles {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (j *JsonDB) CreateCollectible(_ context.Context, c *Collectible) error {
	j.state.Lock()
	defer j.state.Unlock()
	for _, existing := range j.state.Collectibles {
		if strings.EqualFold(existing.Name, c.Name) {
			return errors.New("key already exists")
		}
	}
	id := j.nextID()
	cp := *c
	cp.ID = id
	j.state.Collectibles[id] = &cp
	if err := j.saveLocked(); err != nil {
		delete(j.state.Collectibles, id)
		return err
	}
	c.ID = id
	return nil
}

func (j *JsonDB) GetOrCreatePlayer(_ context.Context, discordID string) (*Player, error) {
	j.state.Lock()
	defer j.state.Unlock()
	for _, p := range j.state.Players {
		if p.DiscordID == discordID {
			cp := *p
			return &cp, nil
		}
	}
	p := &Player{ID: j.nextID(), DiscordID: discordID}
	j.state.Players[p.ID] = p
	if err := j.saveLocked(); err != nil {
		delete(j.state.Players, p.ID)
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (j *JsonDB) GetSpecialByName(_ context.Context, name string) (*Special, error) {
	j.state.Lock()
	defer j.state.Unlock()
	for _, s := range j.state.Specials {
		if strings.EqualFold(s.Name, name) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (j *JsonDB) CreateSpecial(_ context.Context, s *Special) error {
	j.state.Lock()
	defer j.state.Unlock()
	id := j.nextID()
	cp := *s
	cp.ID = id
	j.state.Specials[id] = &cp
	if err := j.saveLocked(); err != nil {
		delete(j.state.Specials, id)
		return err
	}
	s.ID = id
	return nil
}

func (j *JsonDB) CreateInstance(_ context.Context, inst *Instance) error {
	j.state.Lock()
	defer j.state.Unlock()
	if _, ok := j.state.Collectibles[inst.CollectibleID]; !ok {
		return ErrNotFound
	}
	if _, ok := j.state.Players[inst.PlayerID]; !ok {
		return ErrNotFound
	}
	id := j.nextID()
	cp := *inst
	cp.ID = id
	j.state.Instances[id] = &cp
	if err := j.saveLocked(); err != nil {
		delete(j.state.Instances, id)
		return err
	}
	inst.ID = id
	return nil
}

func (j *JsonDB) GetInstance(_ context.Context, id int64) (*Instance, error) {
	j.state.Lock()
	defer j.state.Unlock()
	inst, ok := j.state.Instances[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inst
	return &cp, nil
}

func (j *JsonDB) CountInstances(_ context.Context, playerID, collectibleID int64) (int, error) {
	j.state.Lock()
	defer j.state.Unlock()
	n := 0
	for _, inst := range j.state.Instances {
		if inst.PlayerID == playerID && inst.CollectibleID == collectibleID {
			n++
		}
	}
	return n, nil
}
