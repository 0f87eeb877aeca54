package main

import (
	"fmt"
	"os"

	"github.com/intrntsrfr/countrydex/database"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Collectibles []seedCollectible `yaml:"collectibles"`
	Specials     []seedSpecial     `yaml:"specials"`
}

type seedCollectible struct {
	Name               string  `yaml:"name"`
	Rarity             float64 `yaml:"rarity"`
	Enabled            *bool   `yaml:"enabled"`
	WildCard           string  `yaml:"wild_card"`
	CollectionCard     string  `yaml:"collection_card"`
	Attack             int     `yaml:"attack"`
	Health             int     `yaml:"health"`
	AbilityName        string  `yaml:"ability_name"`
	AbilityDescription string  `yaml:"ability_description"`
	Regime             string  `yaml:"regime"`
	Economy            string  `yaml:"economy"`
}

type seedSpecial struct {
	Name        string `yaml:"name"`
	CatchPhrase string `yaml:"catch_phrase"`
}

func parseRegime(s string) (database.Regime, error) {
	for _, r := range []database.Regime{database.RegimeDemocracy, database.RegimeDictatorship, database.RegimeUnion} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown regime %q", s)
}

func parseEconomy(s string) (database.Economy, error) {
	for _, e := range []database.Economy{database.EconomyCapitalist, database.EconomyCommunist, database.EconomyAnarchy} {
		if e.String() == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown economy %q", s)
}

func (s seedCollectible) collectible() (*database.Collectible, error) {
	regime, err := parseRegime(s.Regime)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", s.Name, err)
	}
	economy, err := parseEconomy(s.Economy)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", s.Name, err)
	}
	enabled := true
	if s.Enabled != nil {
		enabled = *s.Enabled
	}
	return &database.Collectible{
		Name:               s.Name,
		Rarity:             s.Rarity,
		Enabled:            enabled,
		WildCard:           s.WildCard,
		CollectionCard:     s.CollectionCard,
		Attack:             s.Attack,
		Health:             s.Health,
		AbilityName:        s.AbilityName,
		AbilityDescription: s.AbilityDescription,
		Regime:             regime,
		Economy:            economy,
	}, nil
}

func readSeed(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %v: %w", path, err)
	}
	return &f, nil
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "add collectibles and specials from a yaml file",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("missing seed file", 1)
			}
			seed, err := readSeed(c.Args().First())
			if err != nil {
				return err
			}

			cfg, z, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg, z)
			if err != nil {
				return err
			}
			defer db.Close()

			for _, sc := range seed.Collectibles {
				col, err := sc.collectible()
				if err != nil {
					return err
				}
				if err := db.CreateCollectible(c.Context, col); err != nil {
					z.Warn("skipping collectible", zap.String("name", col.Name), zap.Error(err))
					continue
				}
				z.Info("added collectible", zap.String("name", col.Name), zap.Int64("id", col.ID))
			}
			for _, ss := range seed.Specials {
				sp := &database.Special{Name: ss.Name, CatchPhrase: ss.CatchPhrase}
				if err := db.CreateSpecial(c.Context, sp); err != nil {
					z.Warn("skipping special", zap.String("name", sp.Name), zap.Error(err))
					continue
				}
				z.Info("added special", zap.String("name", sp.Name))
			}
			return nil
		},
	}
}
