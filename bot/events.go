package bot

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	msgNotAllowed   = "You are not allowed to use this command."
	msgSomethingBad = "Something went wrong."
)

func readyHandler(b *Bot, r *discordgo.Ready) {
	b.log.Info("logged in", zap.String("user", r.User.String()), zap.Int("guilds", len(r.Guilds)))

	if err := b.syncCommands(); err != nil {
		b.log.Error("failed to register application commands", zap.Error(err))
	}

	statusTimer := time.NewTicker(time.Minute)
	go func() {
		defer statusTimer.Stop()
		i := 0
		for {
			select {
			case <-b.ctx.Done():
				return
			case <-statusTimer.C:
			}
			switch i {
			case 0:
				_ = b.sess.UpdateGameStatus(0, b.config.Prefix+"ping")
			case 1:
				_ = b.sess.UpdateWatchStatus(0, fmt.Sprintf("for wild %vs", strings.ToLower(b.DisplayName())))
			}
			i = (i + 1) % 2
		}
	}()
}

func disconnectHandler(b *Bot, _ *discordgo.Disconnect) {
	b.log.Info("disconnected")
}

func guildCreateHandler(b *Bot, g *discordgo.GuildCreate) {
	b.log.Info("guild available", zap.String("id", g.ID), zap.String("name", g.Name))
}

// syncCommands overwrites the application commands with the loaded ones.
func (b *Bot) syncCommands() error {
	appID := b.disc.BotUser().ID
	_, err := b.sess.ApplicationCommandBulkOverwrite(appID, "", b.extensions.ApplicationCommands())
	return err
}

func (b *Bot) recoverCommand(name string, reply func(string)) {
	if r := recover(); r != nil {
		b.log.Error("command panicked",
			zap.String("command", name),
			zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()),
		)
		reply(msgSomethingBad)
	}
}

// allowOwner reports whether userID may run an owner command, and tells the
// caller otherwise. It is checked on every call, never cached.
func (b *Bot) allowOwner(userID string, deny func(string)) bool {
	if b.config.IsOwner(userID) {
		return true
	}
	b.log.Info("denied owner command", zap.String("user", userID))
	deny(msgNotAllowed)
	return false
}

func messageCreateHandler(b *Bot, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	if m.GuildID != "" {
		b.auto.Observe(b.ctx, m.GuildID)
	}

	if !strings.HasPrefix(m.Content, b.config.Prefix) {
		return
	}
	args := SplitArgs(strings.TrimPrefix(m.Content, b.config.Prefix))
	if len(args) == 0 {
		return
	}

	cmd := b.extensions.Command(args[0])
	if cmd == nil {
		return
	}

	ctx := &Context{
		ctx:  b.ctx,
		b:    b,
		s:    b.sess,
		m:    m.Message,
		args: args[1:],
	}
	defer b.recoverCommand(cmd.Name, ctx.Reply)

	if cmd.OwnerOnly && !ctx.RequireOwner() {
		return
	}

	b.metrics.Command(cmd.Name)
	cmd.Run(ctx)
}

func interactionCreateHandler(b *Bot, i *discordgo.InteractionCreate) {
	ctx := &InteractionContext{
		ctx: b.ctx,
		b:   b,
		s:   b.sess,
		i:   i.Interaction,
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		cmd := b.extensions.Slash(name)
		if cmd == nil {
			ctx.Respond("This command is not available right now.", true)
			return
		}
		defer b.recoverCommand(name, ctx.Fail)
		b.metrics.Command(name)
		cmd.Run(ctx)

	case discordgo.InteractionMessageComponent:
		b.dispatchComponent(ctx, i.MessageComponentData().CustomID)

	case discordgo.InteractionModalSubmit:
		b.dispatchComponent(ctx, i.ModalSubmitData().CustomID)
	}
}

func (b *Bot) dispatchComponent(ctx *InteractionContext, customID string) {
	h, id := b.extensions.Component(customID)
	if h == nil {
		ctx.Respond("This button is not active anymore.", true)
		return
	}
	defer b.recoverCommand(h.Prefix, ctx.Fail)
	h.Run(ctx, id)
}
