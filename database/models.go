package database

import (
	"database/sql"
	"fmt"
	"time"
)

type Regime int

const (
	RegimeDemocracy    Regime = 1
	RegimeDictatorship Regime = 2
	RegimeUnion        Regime = 3
)

func (r Regime) String() string {
	switch r {
	case RegimeDemocracy:
		return "democracy"
	case RegimeDictatorship:
		return "dictatorship"
	case RegimeUnion:
		return "union"
	}
	return fmt.Sprintf("regime(%d)", int(r))
}

type Economy int

const (
	EconomyCapitalist Economy = 1
	EconomyCommunist  Economy = 2
	EconomyAnarchy    Economy = 3
)

func (e Economy) String() string {
	switch e {
	case EconomyCapitalist:
		return "capitalist"
	case EconomyCommunist:
		return "communist"
	case EconomyAnarchy:
		return "anarchy"
	}
	return fmt.Sprintf("economy(%d)", int(e))
}

// Collectible is a catalog entry describing one kind of countryball.
type Collectible struct {
	ID                 int64   `json:"id" db:"id"`
	Name               string  `json:"name" db:"name"`
	Rarity             float64 `json:"rarity" db:"rarity"`
	Enabled            bool    `json:"enabled" db:"enabled"`
	WildCard           string  `json:"wild_card" db:"wild_card"`
	CollectionCard     string  `json:"collection_card" db:"collection_card"`
	Attack             int     `json:"attack" db:"attack"`
	Health             int     `json:"health" db:"health"`
	AbilityName        string  `json:"ability_name" db:"ability_name"`
	AbilityDescription string  `json:"ability_description" db:"ability_description"`
	Regime             Regime  `json:"regime" db:"regime"`
	Economy            Economy `json:"economy" db:"economy"`
}

type Player struct {
	ID        int64  `json:"id" db:"id"`
	DiscordID string `json:"discord_id" db:"discord_id"`
}

type Special struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	CatchPhrase string `json:"catch_phrase" db:"catch_phrase"`
}

// Instance is one owned copy of a collectible.
type Instance struct {
	ID            int64          `json:"id" db:"id"`
	CollectibleID int64          `json:"collectible_id" db:"collectible_id"`
	PlayerID      int64          `json:"player_id" db:"player_id"`
	Shiny         bool           `json:"shiny" db:"shiny"`
	AttackBonus   int            `json:"attack_bonus" db:"attack_bonus"`
	HealthBonus   int            `json:"health_bonus" db:"health_bonus"`
	SpecialID     sql.NullInt64  `json:"special_id" db:"special_id"`
	CatchDate     time.Time      `json:"catch_date" db:"catch_date"`
	SpawnedAt     sql.NullTime   `json:"spawned_at" db:"spawned_at"`
	ServerID      sql.NullString `json:"server_id" db:"server_id"`
}

// Attack is the total attack of the instance.
func (i *Instance) Attack(c *Collectible) int {
	return c.Attack + i.AttackBonus
}

// Health is the total health of the instance.
func (i *Instance) Health(c *Collectible) int {
	return c.Health + i.HealthBonus
}
