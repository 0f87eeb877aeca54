package bot

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/countrydex/database"
	"github.com/intrntsrfr/countrydex/mint"
	"go.uber.org/zap"
)

func ownerGroupName(collectibleName string) string {
	return "owner_" + strings.ReplaceAll(strings.ToLower(collectibleName), " ", "_") + "s"
}

func newOwnerExtension(b *Bot) *Extension {
	pings := newPingLimiter(pingCooldown)
	name := strings.ToLower(b.config.CollectibleName)

	answerChoices := []*discordgo.ApplicationCommandOptionChoice{{Name: "Random", Value: "random"}}
	for _, a := range pingAnswers {
		if strings.Contains(a.en, "{user}") {
			continue
		}
		answerChoices = append(answerChoices, &discordgo.ApplicationCommandOptionChoice{Name: a.en, Value: a.en})
	}

	cmd := &discordgo.ApplicationCommand{
		Name:        ownerGroupName(b.config.CollectibleName),
		Description: "Owner commands",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "spawnball",
				Description: "Force spawn a random or specified " + name,
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "countryball", Description: "The " + name + " to spawn"},
					{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "channel",
						Description:  "The channel to spawn in",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "n", Description: "How many to spawn"},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "visible", Description: "Whether the confirmation is public"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "giveball",
				Description: "Give the specified " + name + " to a player",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "ball", Description: "The " + name + " to give", Required: true},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The receiving user", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "special", Description: "Special event"},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "shiny", Description: "Omit this to make it random"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "health_bonus", Description: "Omit this to make it random (-35/+40%)"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "attack_bonus", Description: "Omit this to make it random (-35/+40%)"},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "n", Description: "How many to give"},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "visible", Description: "Whether the confirmation is public"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "ping",
				Description: "Makes the bot say random things",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "language",
						Description: "Defaults to English",
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "English", Value: "en"},
							{Name: "Hebrew", Value: "il"},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "answer",
						Description: "Defaults to Random",
						Choices:     answerChoices,
					},
				},
			},
		},
	}

	return &Extension{
		Slash: []*SlashCommand{{
			Command: cmd,
			Run: func(c *InteractionContext) {
				switch c.Subcommand() {
				case "spawnball":
					ownerSpawnball(c)
				case "giveball":
					ownerGiveball(c)
				case "ping":
					ownerPing(c, pings)
				}
			},
		}},
	}
}

func boolOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, def bool) bool {
	if o, ok := opts[name]; ok {
		return o.BoolValue()
	}
	return def
}

func ownerSpawnball(c *InteractionContext) {
	user := c.User()
	if !c.RequireOwner() {
		return
	}
	opts := c.Options()

	n, err := ParseAmount(opts["n"])
	if err != nil {
		c.Respond(msgNotPositive, true)
		return
	}

	var def *database.Collectible
	if o, ok := opts["countryball"]; ok {
		if def, err = c.b.resolveCollectible(o.StringValue()); err != nil {
			c.Respond(c.b.noSuchCollectible(), true)
			return
		}
	}

	channelID := c.i.ChannelID
	if o, ok := opts["channel"]; ok {
		channelID = o.ChannelValue(nil).ID
	}

	visible := boolOption(opts, "visible", true)
	c.Defer(!visible)

	spawned := c.b.spawner.SpawnN(c.ctx, channelID, def, n)

	var msg string
	switch {
	case n > 1:
		msg = fmt.Sprintf("%d balls spawned, %v.", spawned, user.Mention())
	case def != nil:
		msg = fmt.Sprintf("%v %v spawned.", c.b.DisplayName(), def.Name)
	default:
		msg = fmt.Sprintf("%v spawned.", c.b.DisplayName())
	}
	if spawned < n {
		msg += fmt.Sprintf(" %d could not be spawned, check the logs.", n-spawned)
	}
	c.FollowupText(msg, !visible)
}

func ownerGiveball(c *InteractionContext) {
	actor := c.User()
	if !c.RequireOwner() {
		return
	}
	opts := c.Options()

	def, err := c.b.resolveCollectible(opts["ball"].StringValue())
	if err != nil {
		c.Respond(c.b.noSuchCollectible(), true)
		return
	}
	recipient := opts["user"].UserValue(nil)

	var special *database.Special
	if o, ok := opts["special"]; ok {
		special, err = c.b.resolveSpecial(c.ctx, o.StringValue())
		if errors.Is(err, errUnknownSpecial) {
			c.Respond("No such special exists.", true)
			return
		}
		if err != nil {
			c.b.log.Error("failed to look up special", zap.Error(err))
			c.Respond(msgSomethingBad, true)
			return
		}
	}

	var mopts mint.Options
	mopts.Special = special
	if o, ok := opts["shiny"]; ok {
		v := o.BoolValue()
		mopts.Shiny = &v
	}
	if o, ok := opts["health_bonus"]; ok {
		v := int(o.IntValue())
		mopts.HealthBonus = &v
	}
	if o, ok := opts["attack_bonus"]; ok {
		v := int(o.IntValue())
		mopts.AttackBonus = &v
	}

	n, err := ParseAmount(opts["n"])
	if err != nil {
		c.Respond(msgNotPositive, true)
		return
	}
	visible := boolOption(opts, "visible", false)

	c.Defer(true)

	var last *mint.Result
	for i := 0; i < n; i++ {
		res, err := c.b.give(c.ctx, actor, def, recipient.ID, mopts)
		if err != nil {
			c.b.log.Error("failed to give collectible", zap.String("user", recipient.ID), zap.Error(err))
			c.FollowupText(msgSomethingBad, true)
			return
		}
		last = res
	}

	msg := giveMessage(c.b.config.CollectibleName, def, recipient.Mention(), actor.Mention(), n, last.Instance, special)
	if visible {
		if _, err := c.s.ChannelMessageSend(c.i.ChannelID, msg); err != nil {
			c.b.log.Error("failed to send give message", zap.Error(err))
		}
		c.FollowupText("Done.", true)
		return
	}
	c.FollowupText(msg, true)
}

func giveMessage(collectibleName string, def *database.Collectible, recipient, actor string, n int, inst *database.Instance, special *database.Special) string {
	specialName := "None"
	if special != nil {
		specialName = special.Name
	}
	verb, times := "was", ""
	if n > 1 {
		verb, times = "were", fmt.Sprintf(" %d times", n)
	}
	return fmt.Sprintf("`%v` %v %v successfully given to %v by %v%v.\nSpecial: `%v` • ATK:`%+d` • HP:`%+d` • Shiny: `%v`",
		def.Name, collectibleName, verb, recipient, actor, times,
		specialName, inst.AttackBonus, inst.HealthBonus, inst.Shiny)
}

func ownerPing(c *InteractionContext, pings *pingLimiter) {
	user := c.User()
	if !c.b.config.IsOwner(user.ID) && !pings.Allow(user.ID) {
		c.Respond(fmt.Sprintf("Wait your 30 seconds, %v.", user.Mention()), false)
		return
	}

	opts := c.Options()
	language, answer := "en", ""
	if o, ok := opts["language"]; ok {
		language = o.StringValue()
	}
	if o, ok := opts["answer"]; ok {
		answer = o.StringValue()
	}

	r := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	text, ok := pickPingAnswer(r, language, answer, user.Mention())
	if !ok {
		c.Respond("Language not found.", true)
		return
	}
	c.Respond(text, false)
}
