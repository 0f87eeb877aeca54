package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/countrydex/database"
	"github.com/intrntsrfr/countrydex/mint"
	"go.uber.org/zap"
)

func auditLine(actor, collectibleName, ball, recipient string, inst *database.Instance, special *database.Special) string {
	return fmt.Sprintf("%v gave %v %v to %v. %v", actor, collectibleName, ball, recipient, mint.StatLine(inst, special))
}

// logAction records an administrative action in the log and the audit channel.
func (b *Bot) logAction(text string) {
	b.log.Info(text, zap.String("kind", "audit"))
	if b.config.LogChannelID == "" {
		return
	}
	if _, err := b.sess.ChannelMessageSend(b.config.LogChannelID, text); err != nil {
		b.log.Warn("failed to send audit message", zap.Error(err))
	}
}

// userName resolves a user id to a display string, falling back to a mention.
func (b *Bot) userName(id string) string {
	u, err := b.sess.User(id)
	if err != nil {
		return "<@" + id + ">"
	}
	return u.String()
}

// give mints def for recipientID on behalf of actor and writes the audit line.
func (b *Bot) give(ctx context.Context, actor *discordgo.User, def *database.Collectible, recipientID string, opts mint.Options) (*mint.Result, error) {
	res, err := b.minter.Mint(ctx, def, recipientID, opts)
	if err != nil {
		return nil, err
	}
	b.metrics.Minted(1)
	b.logAction(auditLine(actor.String(), b.config.CollectibleName, def.Name, b.userName(recipientID), res.Instance, opts.Special))
	return res, nil
}
