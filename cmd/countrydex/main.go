package main

import (
	"context"
	"fmt"
	"image/png"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/intrntsrfr/countrydex/bot"
	"github.com/intrntsrfr/countrydex/catalog"
	"github.com/intrntsrfr/countrydex/config"
	"github.com/intrntsrfr/countrydex/database"
	"github.com/intrntsrfr/countrydex/kvstore"
	"github.com/intrntsrfr/countrydex/logger"
	"github.com/intrntsrfr/countrydex/metrics"
	"github.com/intrntsrfr/countrydex/mint"
	"github.com/intrntsrfr/countrydex/render"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

func main() {
	app := &cli.App{
		Name:  "countrydex",
		Usage: "collect countryballs on Discord",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			migrateCommand(),
			seedCommand(),
			renderCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New("countrydex", cfg.LogLevel), nil
}

func openDatabase(cfg *config.Config, log *zap.Logger) (database.DB, error) {
	if cfg.Database.ConnectionString != "" {
		return database.NewPSQLDatabase(&database.Config{
			Log:     log.Named("database"),
			ConnStr: cfg.Database.ConnectionString,
		})
	}
	log.Info("no connection string set, using json database", zap.String("path", cfg.Database.JSONPath))
	return database.NewJsonDatabase(cfg.Database.JSONPath)
}

func loadRenderer(cfg *config.Config, log *zap.Logger) *render.Renderer {
	assets, err := render.LoadAssets(cfg.Assets.CardDir)
	if err != nil {
		log.Warn("card assets unavailable, cards are disabled", zap.Error(err))
		return nil
	}
	return render.New(assets, render.FileArtwork(cfg.Assets.Root))
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "start the bot",
		Action: func(c *cli.Context) error {
			cfg, z, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			defer z.Sync()

			db, err := openDatabase(cfg, z)
			if err != nil {
				return err
			}
			defer db.Close()

			cat := catalog.New(db)
			if err := cat.Reload(c.Context); err != nil {
				return fmt.Errorf("failed to load collectibles: %w", err)
			}
			z.Info("loaded collectibles", zap.Int("count", cat.Len()))

			store, err := kvstore.NewStore(cfg.Store.Path, z.Named("kvstore"))
			if err != nil {
				return err
			}
			defer store.Close()

			m := metrics.New()
			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()
			if cfg.MetricsAddress != "" {
				go func() {
					if err := m.Serve(ctx, cfg.MetricsAddress, z.Named("metrics")); err != nil {
						z.Error("metrics server stopped", zap.Error(err))
					}
				}()
			}

			b, err := bot.NewBot(&bot.Config{
				Config:   cfg,
				Store:    store,
				Log:      z.Named("bot"),
				DB:       db,
				Catalog:  cat,
				Minter:   mint.New(db, nil),
				Renderer: loadRenderer(cfg, z.Named("render")),
				Metrics:  m,
			})
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.Run(); err != nil {
				return err
			}

			// block until ctrl-c
			sc := make(chan os.Signal, 1)
			signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
			<-sc
			z.Info("shutting down")
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create the database tables",
		Action: func(c *cli.Context) error {
			cfg, z, err := loadConfig(c)
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg, z)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.CreateSchema(c.Context); err != nil {
				return err
			}
			z.Info("schema is up to date")
			return nil
		},
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "render the card of an instance to a png file",
		ArgsUsage: "<instance id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "card.png", Usage: "output file"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("missing instance id", 1)
			}
			var id int64
			if _, err := fmt.Sscan(c.Args().First(), &id); err != nil {
				return cli.Exit("instance id must be a number", 1)
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

			inst, err := db.GetInstance(c.Context, id)
			if err != nil {
				return fmt.Errorf("instance %d: %w", id, err)
			}
			cat := catalog.New(db)
			if err := cat.Reload(c.Context); err != nil {
				return err
			}
			def, ok := cat.Get(inst.CollectibleID)
			if !ok {
				return fmt.Errorf("collectible %d not found", inst.CollectibleID)
			}

			assets, err := render.LoadAssets(cfg.Assets.CardDir)
			if err != nil {
				return err
			}
			img, err := render.New(assets, render.FileArtwork(cfg.Assets.Root)).Render(inst, def)
			if err != nil {
				return err
			}

			f, err := os.Create(c.String("out"))
			if err != nil {
				return err
			}
			defer f.Close()
			if err := png.Encode(f, img); err != nil {
				return err
			}
			z.Info("card written", zap.String("file", c.String("out")))
			return nil
		},
	}
}
