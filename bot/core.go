package bot

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func newCoreExtension(b *Bot) *Extension {
	return &Extension{
		Slash: []*SlashCommand{{
			Command: &discordgo.ApplicationCommand{
				Name:        "info",
				Description: "Get information about the bot",
			},
			Run: infoCommand,
		}},
		Commands: []*Command{
			{
				Name:        "ping",
				Description: "Ping!",
				Run: func(c *Context) {
					c.Reply("Oy gevalt")
				},
			},
			{
				Name:        "reload",
				Description: "Reload an extension",
				OwnerOnly:   true,
				Run:         reloadCommand,
			},
			{
				Name:        "reloadtree",
				Description: "Sync the application commands with Discord",
				OwnerOnly:   true,
				Run: func(c *Context) {
					if err := c.b.syncCommands(); err != nil {
						c.b.log.Error("failed to sync application commands", zap.Error(err))
						c.Reply("Failed to reload the application commands tree.")
						return
					}
					c.Reply("Application commands tree reloaded.")
				},
			},
			{
				Name:        "reloadcache",
				Description: "Reload the collectibles from the database",
				OwnerOnly:   true,
				Run: func(c *Context) {
					if err := c.b.catalog.Reload(c.ctx); err != nil {
						c.b.log.Error("failed to reload catalog", zap.Error(err))
						c.Reply("Failed to reload the cache.")
						return
					}
					c.b.log.Info("catalog reloaded", zap.Int("collectibles", c.b.catalog.Len()))
					c.React("✅")
				},
			},
			{
				Name:        "analyzedb",
				Description: "Analyze the database",
				OwnerOnly:   true,
				Run: func(c *Context) {
					start := time.Now()
					if err := c.b.db.Analyze(c.ctx); err != nil {
						c.b.log.Error("failed to analyze database", zap.Error(err))
						c.Reply("Failed to analyze the database.")
						return
					}
					c.Reply(fmt.Sprintf("Analyzed database in %dms.", time.Since(start).Milliseconds()))
				},
			},
		},
	}
}

func reloadCommand(c *Context) {
	if len(c.args) < 1 {
		c.Reply(msgMissingArgs)
		return
	}
	name := c.args[0]

	err := c.b.extensions.Reload(c.b, name)
	switch {
	case errors.Is(err, ErrExtensionNotFound):
		c.Reply("Extension not found")
	case err != nil:
		c.b.log.Error("failed to reload extension", zap.String("extension", name), zap.Error(err))
		c.Reply("Failed to reload extension.")
	default:
		c.b.log.Info("reloaded extension", zap.String("extension", name))
		c.Reply("Extension reloaded.")
	}
}

func infoCommand(c *InteractionContext) {
	guilds := 0
	if c.s.State != nil {
		c.s.State.RLock()
		guilds = len(c.s.State.Guilds)
		c.s.State.RUnlock()
	}

	c.RespondEmbed(&discordgo.MessageEmbed{
		Title: "Info",
		Color: int(Green),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Golang version", Value: runtime.Version()},
			{Name: "Running since", Value: fmt.Sprintf("<t:%v:R>", c.b.startTime.Unix())},
			{Name: c.b.DisplayName() + "s", Value: strconv.Itoa(c.b.catalog.Len()), Inline: true},
			{Name: "Servers", Value: strconv.Itoa(guilds), Inline: true},
		},
	})
}
