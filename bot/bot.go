package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/countrydex/catalog"
	"github.com/intrntsrfr/countrydex/config"
	"github.com/intrntsrfr/countrydex/database"
	"github.com/intrntsrfr/countrydex/discord"
	"github.com/intrntsrfr/countrydex/kvstore"
	"github.com/intrntsrfr/countrydex/metrics"
	"github.com/intrntsrfr/countrydex/mint"
	"github.com/intrntsrfr/countrydex/render"
	"github.com/intrntsrfr/countrydex/spawn"
	"go.uber.org/zap"
)

type Bot struct {
	store      *kvstore.Store
	log        *zap.Logger
	db         database.DB
	disc       *discord.Discord
	sess       *discordgo.Session
	config     *config.Config
	catalog    *catalog.Catalog
	minter     *mint.Minter
	spawner    *spawn.Spawner
	auto       *spawn.AutoSpawner
	renderer   *render.Renderer
	metrics    *metrics.Metrics
	extensions *Extensions
	startTime  time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

type Config struct {
	Config   *config.Config
	Store    *kvstore.Store
	Log      *zap.Logger
	DB       database.DB
	Catalog  *catalog.Catalog
	Minter   *mint.Minter
	Renderer *render.Renderer
	Metrics  *metrics.Metrics
}

func NewBot(c *Config) (*Bot, error) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		store:     c.Store,
		log:       c.Log,
		db:        c.DB,
		config:    c.Config,
		catalog:   c.Catalog,
		minter:    c.Minter,
		renderer:  c.Renderer,
		metrics:   c.Metrics,
		startTime: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}

	disc, err := discord.NewDiscord(c.Config.Token, c.Log.Named("discord"))
	if err != nil {
		cancel()
		return nil, err
	}
	b.disc = disc
	b.sess = disc.Sess

	b.spawner = spawn.New(&spawn.Config{
		Catalog:         c.Catalog,
		Sessions:        c.Store,
		Minter:          c.Minter,
		Channel:         discord.SpawnChannel{Discord: disc},
		Artwork:         spawn.DirOpener(c.Config.Assets.Root),
		CollectibleName: c.Config.CollectibleName,
		ClaimTimeout:    c.Config.Spawn.ClaimTimeout,
		Log:             c.Log.Named("spawn"),
		Metrics:         c.Metrics,
	})
	b.auto = spawn.NewAutoSpawner(b.spawner, c.Config.Spawn.Channels, c.Config.Spawn.Threshold,
		c.Config.Spawn.Cooldown, c.Log.Named("autospawn"))

	b.extensions = NewExtensions()
	registerExtensions(b.extensions)
	for _, name := range b.extensions.Available() {
		if err := b.extensions.Load(b, name); err != nil {
			cancel()
			return nil, err
		}
	}

	return b, nil
}

func (b *Bot) Close() {
	b.cancel()
	b.spawner.Close()
	b.disc.Close()
}

func (b *Bot) Run() error {
	go b.listen(b.disc.Events)

	err := b.disc.Open()
	if err != nil {
		return err
	}
	return nil
}

func (b *Bot) listen(evtCh <-chan interface{}) {
	for {
		var evt interface{}
		select {
		case <-b.ctx.Done():
			return
		case evt = <-evtCh:
		}

		switch e := evt.(type) {
		case *discordgo.Ready:
			go readyHandler(b, e)
		case *discordgo.Disconnect:
			go disconnectHandler(b, e)
		case *discordgo.GuildCreate:
			go guildCreateHandler(b, e)
		case *discordgo.MessageCreate:
			go messageCreateHandler(b, e)
		case *discordgo.InteractionCreate:
			go interactionCreateHandler(b, e)
		}
	}
}

// DisplayName is the title-cased collectible name.
func (b *Bot) DisplayName() string {
	return b.spawner.DisplayName()
}
