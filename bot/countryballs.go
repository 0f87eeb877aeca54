package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/countrydex/database"
	"github.com/intrntsrfr/countrydex/kvstore"
	"github.com/intrntsrfr/countrydex/mint"
	"github.com/intrntsrfr/countrydex/spawn"
	"go.uber.org/zap"
)

func newCountryballsExtension(b *Bot) *Extension {
	return &Extension{
		Commands: []*Command{
			{
				Name:        "spawnball",
				Description: "Force spawn a collectible",
				OwnerOnly:   true,
				Run:         spawnballCommand,
			},
			{
				Name:        "giveball",
				Description: "Give a collectible to one or more users",
				OwnerOnly:   true,
				Run:         giveballCommand,
			},
			{
				Name:        "specialgive",
				Description: "Give a collectible with explicit stats",
				OwnerOnly:   true,
				Run:         specialgiveCommand,
			},
		},
		Components: []*ComponentHandler{
			{Prefix: spawn.ModalPrefix, Run: catchModalSubmit},
			{Prefix: spawn.CatchPrefix, Run: catchButton},
		},
	}
}

func spawnballCommand(c *Context) {
	channelID := c.m.ChannelID
	args := c.args
	if len(args) > 0 {
		if id, err := ParseChannel(args[0]); err == nil {
			channelID = id
			args = args[1:]
		}
	}

	var def *database.Collectible
	if name := strings.Join(args, " "); name != "" {
		var err error
		if def, err = c.b.resolveCollectible(name); err != nil {
			c.Reply(c.b.noSuchCollectible())
			return
		}
	}

	if !c.b.spawner.Spawn(c.ctx, channelID, def) {
		c.Reply("Could not spawn there, check the logs.")
		return
	}
	c.React("✅")
}

func giveballCommand(c *Context) {
	if len(c.args) < 1 {
		c.Reply(msgMissingArgs)
		return
	}

	def, err := c.b.resolveCollectible(c.args[0])
	if err != nil {
		c.Reply(fmt.Sprintf("No such %v exists. Picking random.", c.b.DisplayName()))
		if def, err = c.b.spawner.Random(); err != nil {
			c.Reply(fmt.Sprintf("There is no %v to give.", strings.ToLower(c.b.DisplayName())))
			return
		}
	}

	var users []string
	for _, arg := range c.args[1:] {
		id, err := ParseUser(arg)
		if err != nil {
			c.Reply(fmt.Sprintf("`%v` is not a user.", arg))
			return
		}
		users = append(users, id)
	}
	if len(users) == 0 {
		c.Reply(fmt.Sprintf("User not specified. Giving %v to %v.", c.b.DisplayName(), c.Author().Mention()))
		users = append(users, c.Author().ID)
	}

	given := 0
	for _, id := range users {
		if _, err := c.b.give(c.ctx, c.Author(), def, id, mint.Options{}); err != nil {
			c.b.log.Error("failed to give collectible", zap.String("user", id), zap.Error(err))
			continue
		}
		given++
	}

	switch {
	case given == 0:
		c.Reply(msgSomethingBad)
	case len(users) > 1:
		c.Reply(fmt.Sprintf("%v %v given to %v users.", c.b.DisplayName(), def.Name, given))
	default:
		c.Reply(fmt.Sprintf("%v %v was given to <@%v>.", c.b.DisplayName(), def.Name, users[0]))
	}
}

// specialgive <user> <ball> <shiny> <attack> <health> [special]
func specialgiveCommand(c *Context) {
	if len(c.args) < 5 {
		c.Reply(msgMissingArgs)
		return
	}

	userID, err := ParseUser(c.args[0])
	if err != nil {
		c.Reply(fmt.Sprintf("`%v` is not a user.", c.args[0]))
		return
	}
	def, err := c.b.resolveCollectible(c.args[1])
	if err != nil {
		c.Reply(c.b.noSuchCollectible())
		return
	}
	shiny, err := ParseBool(c.args[2])
	if err != nil {
		c.Reply(fmt.Sprintf("`%v` is not a yes/no value.", c.args[2]))
		return
	}
	attack, err := ParseInt(c.args[3])
	if err != nil {
		c.Reply(fmt.Sprintf("Invalid attack bonus: %v", err))
		return
	}
	health, err := ParseInt(c.args[4])
	if err != nil {
		c.Reply(fmt.Sprintf("Invalid health bonus: %v", err))
		return
	}

	var special *database.Special
	if len(c.args) > 5 {
		special, err = c.b.resolveSpecial(c.ctx, strings.Join(c.args[5:], " "))
		if errors.Is(err, errUnknownSpecial) {
			c.Reply("No such special exists.")
			return
		}
		if err != nil {
			c.b.log.Error("failed to look up special", zap.Error(err))
			c.Reply(msgSomethingBad)
			return
		}
	}

	_, err = c.b.give(c.ctx, c.Author(), def, userID, mint.Options{
		Shiny:       &shiny,
		AttackBonus: &attack,
		HealthBonus: &health,
		Special:     special,
	})
	if err != nil {
		c.b.log.Error("failed to give collectible", zap.String("user", userID), zap.Error(err))
		c.Reply(msgSomethingBad)
		return
	}
	c.Reply("Special give successful!")
}

func catchButton(c *InteractionContext, sessionID string) {
	ranAway := fmt.Sprintf("This %v ran away.", strings.ToLower(c.b.DisplayName()))
	sess, err := c.b.store.GetSpawn(sessionID)
	switch {
	case errors.Is(err, kvstore.ErrSessionNotFound):
		c.Respond(ranAway, true)
		return
	case err != nil:
		c.b.log.Error("failed to read spawn session", zap.String("session", sessionID), zap.Error(err))
		c.Respond(msgSomethingBad, true)
		return
	case sess.State == kvstore.StateClaimed:
		c.Respond("I was caught already!", true)
		return
	case c.b.spawner.Expired(sess):
		c.Respond(ranAway, true)
		return
	}

	name := strings.ToLower(c.b.DisplayName())
	c.responded = true
	err = c.s.InteractionRespond(c.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: spawn.ModalPrefix + sessionID,
			Title:    "Catch this " + name + "!",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "name",
						Label:       "Name of this " + name,
						Style:       discordgo.TextInputShort,
						Placeholder: "Your guess",
						Required:    true,
						MaxLength:   100,
					},
				}},
			},
		},
	})
	if err != nil {
		c.b.log.Error("failed to open catch modal", zap.Error(err))
	}
}

// modalValue returns the first text input value of a modal submission.
func modalValue(data discordgo.ModalSubmitInteractionData) string {
	for _, comp := range data.Components {
		var inner []discordgo.MessageComponent
		switch row := comp.(type) {
		case *discordgo.ActionsRow:
			inner = row.Components
		case discordgo.ActionsRow:
			inner = row.Components
		}
		for _, ic := range inner {
			switch in := ic.(type) {
			case *discordgo.TextInput:
				return in.Value
			case discordgo.TextInput:
				return in.Value
			}
		}
	}
	return ""
}

func catchModalSubmit(c *InteractionContext, sessionID string) {
	guess := modalValue(c.i.ModalSubmitData())
	user := c.User()

	res, err := c.b.spawner.Claim(c.ctx, sessionID, c.i.GuildID, user.ID, guess)
	if err != nil {
		c.b.log.Error("failed to claim", zap.String("session", sessionID), zap.String("user", user.ID), zap.Error(err))
		c.Respond(msgSomethingBad, true)
		return
	}

	ephemeral := res.Outcome == spawn.AlreadyCaught || res.Outcome == spawn.Expired
	c.Respond(res.Reply(user.ID, c.b.DisplayName()), ephemeral)
}
