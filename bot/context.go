package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Context is passed to prefix commands.
type Context struct {
	ctx  context.Context
	b    *Bot
	s    *discordgo.Session
	m    *discordgo.Message
	args []string
}

func (c *Context) Author() *discordgo.User {
	return c.m.Author
}

func (c *Context) Reply(text string) {
	if _, err := c.s.ChannelMessageSend(c.m.ChannelID, text); err != nil {
		c.b.log.Error("failed to send reply", zap.String("channel", c.m.ChannelID), zap.Error(err))
	}
}

func (c *Context) RequireOwner() bool {
	return c.b.allowOwner(c.Author().ID, c.Reply)
}

func (c *Context) React(emoji string) {
	if err := c.s.MessageReactionAdd(c.m.ChannelID, c.m.ID, emoji); err != nil {
		c.b.log.Error("failed to add reaction", zap.String("channel", c.m.ChannelID), zap.Error(err))
	}
}

// InteractionContext is passed to application command and component handlers.
type InteractionContext struct {
	ctx context.Context
	b   *Bot
	s   *discordgo.Session
	i   *discordgo.Interaction

	// responded is set once the initial interaction response is sent.
	responded bool
}

func (c *InteractionContext) User() *discordgo.User {
	if c.i.Member != nil && c.i.Member.User != nil {
		return c.i.Member.User
	}
	if c.i.User != nil {
		return c.i.User
	}
	return &discordgo.User{}
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func (c *InteractionContext) Respond(content string, ephemeral bool) {
	c.responded = true
	err := c.s.InteractionRespond(c.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags(ephemeral),
		},
	})
	if err != nil {
		c.b.log.Error("failed to respond to interaction", zap.Error(err))
	}
}

func (c *InteractionContext) RespondEmbed(embed *discordgo.MessageEmbed) {
	c.responded = true
	err := c.s.InteractionRespond(c.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		c.b.log.Error("failed to respond to interaction", zap.Error(err))
	}
}

// Defer acknowledges the interaction; the answer is sent with Followup.
func (c *InteractionContext) Defer(ephemeral bool) {
	c.responded = true
	err := c.s.InteractionRespond(c.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	})
	if err != nil {
		c.b.log.Error("failed to defer interaction", zap.Error(err))
	}
}

func (c *InteractionContext) Followup(params *discordgo.WebhookParams) {
	if _, err := c.s.FollowupMessageCreate(c.i, true, params); err != nil {
		c.b.log.Error("failed to send followup", zap.Error(err))
	}
}

func (c *InteractionContext) FollowupText(content string, ephemeral bool) {
	c.Followup(&discordgo.WebhookParams{Content: content, Flags: flags(ephemeral)})
}

// Fail sends an ephemeral error, as the response or as a followup depending
// on whether the interaction was answered already.
func (c *InteractionContext) Fail(content string) {
	if c.responded {
		c.FollowupText(content, true)
		return
	}
	c.Respond(content, true)
}

func (c *InteractionContext) RequireOwner() bool {
	return c.b.allowOwner(c.User().ID, c.Fail)
}

// Options returns the options of the invoked command, or of its subcommand.
func (c *InteractionContext) Options() map[string]*discordgo.ApplicationCommandInteractionDataOption {
	return optionMap(c.i.ApplicationCommandData().Options)
}

// Subcommand returns the name of the invoked subcommand, if any.
func (c *InteractionContext) Subcommand() string {
	opts := c.i.ApplicationCommandData().Options
	if len(opts) > 0 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return opts[0].Name
	}
	return ""
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		opts = opts[0].Options
	}
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}
