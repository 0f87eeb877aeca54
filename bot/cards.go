package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/countrydex/database"
	"github.com/intrntsrfr/countrydex/render"
	"go.uber.org/zap"
)

func newCardsExtension(b *Bot) *Extension {
	return &Extension{
		Commands: []*Command{{
			Name:        "card",
			Description: "Show the card of an instance",
			Run: func(c *Context) {
				if len(c.args) < 1 {
					c.Reply(msgMissingArgs)
					return
				}
				id, err := strconv.ParseInt(strings.TrimPrefix(c.args[0], "#"), 10, 64)
				if err != nil {
					c.Reply(fmt.Sprintf("`%v` is not a valid id.", c.args[0]))
					return
				}
				msg := c.b.card(c.ctx, id)
				if _, err := c.s.ChannelMessageSendComplex(c.m.ChannelID, msg); err != nil {
					c.b.log.Error("failed to send card", zap.Error(err))
				}
			},
		}},
		Slash: []*SlashCommand{{
			Command: &discordgo.ApplicationCommand{
				Name:        "card",
				Description: "Show the card of a " + strings.ToLower(b.config.CollectibleName),
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "id",
					Description: "The instance id",
					Required:    true,
				}},
			},
			Run: func(c *InteractionContext) {
				id := c.Options()["id"].IntValue()
				c.Defer(false)
				msg := c.b.card(c.ctx, id)
				c.Followup(&discordgo.WebhookParams{Content: msg.Content, Files: msg.Files})
			},
		}},
	}
}

// card renders instance id into a message. Failures produce a message with
// text only.
func (b *Bot) card(ctx context.Context, id int64) *discordgo.MessageSend {
	if b.renderer == nil {
		return &discordgo.MessageSend{Content: "Cards are not available right now."}
	}

	inst, err := b.db.GetInstance(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return &discordgo.MessageSend{Content: fmt.Sprintf("No %v with id `#%d` exists.", strings.ToLower(b.DisplayName()), id)}
	}
	if err != nil {
		b.log.Error("failed to get instance", zap.Int64("id", id), zap.Error(err))
		return &discordgo.MessageSend{Content: msgSomethingBad}
	}

	def, ok := b.catalog.Get(inst.CollectibleID)
	if !ok {
		return &discordgo.MessageSend{Content: b.noSuchCollectible()}
	}

	start := time.Now()
	img, err := b.renderer.Render(inst, def)
	if err != nil {
		var cerr *render.ConfigurationError
		if errors.As(err, &cerr) {
			b.log.Error("card configuration error", zap.String("collectible", def.Name), zap.Error(err))
		} else {
			b.log.Error("failed to render card", zap.Int64("id", id), zap.Error(err))
		}
		return &discordgo.MessageSend{Content: msgSomethingBad}
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		b.log.Error("failed to encode card", zap.Error(err))
		return &discordgo.MessageSend{Content: msgSomethingBad}
	}
	b.metrics.ObserveRender(time.Since(start))

	content := fmt.Sprintf("**%v** `#%d` ATK %d (%+d%%) HP %d (%+d%%)",
		def.Name, inst.ID, inst.Attack(def), inst.AttackBonus, inst.Health(def), inst.HealthBonus)
	if inst.Shiny {
		content = "✨ " + content
	}
	msg := AddMessageFile(&discordgo.MessageSend{Content: content}, fmt.Sprintf("card_%d.png", inst.ID), buf.Bytes())
	msg.Files[0].ContentType = "image/png"
	return msg
}
