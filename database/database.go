package database

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("not found")

type DB interface {
	Close() error
	CreateSchema(ctx context.Context) error
	// Analyze runs a maintenance pass over the backing store.
	Analyze(ctx context.Context) error

	ListCollectibles(ctx context.Context) ([]*Collectible, error)
	GetCollectibleByName(ctx context.Context, name string) (*Collectible, error)
	CreateCollectible(ctx context.Context, c *Collectible) error

	GetOrCreatePlayer(ctx context.Context, discordID string) (*Player, error)

	GetSpecialByName(ctx context.Context, name string) (*Special, error)
	CreateSpecial(ctx context.Context, s *Special) error

	CreateInstance(ctx context.Context, inst *Instance) error
	GetInstance(ctx context.Context, id int64) (*Instance, error)
	CountInstances(ctx context.Context, playerID, collectibleID int64) (int, error)
}

type Config struct {
	Log     *zap.Logger
	ConnStr string
}
