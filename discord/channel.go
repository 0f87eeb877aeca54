package discord

import (
	"github.com/bwmarrin/discordgo"
)

// GuildOf returns the id of the guild channelID belongs to.
func (d *Discord) GuildOf(channelID string) (string, error) {
	ch, err := d.Channel(channelID)
	if err != nil {
		ch, err = d.Sess.Channel(channelID)
		if err != nil {
			return "", err
		}
	}
	return ch.GuildID, nil
}

// Permissions returns the bot's permissions in channelID.
func (d *Discord) Permissions(channelID string) (int64, error) {
	return d.UserChannelPermissions(d.BotUser().ID, channelID)
}

func (d *Discord) Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return d.Sess.ChannelMessageSendComplex(channelID, msg)
}

// DisableButtons disables every button on a message, leaving its content as is.
func (d *Discord) DisableButtons(channelID, messageID string) error {
	msg, err := d.Sess.ChannelMessage(channelID, messageID)
	if err != nil {
		return err
	}
	components := disableComponents(msg.Components)
	_, err = d.Sess.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Components: &components,
	})
	return err
}

func disableComponents(in []discordgo.MessageComponent) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(in))
	for _, c := range in {
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			out = append(out, discordgo.ActionsRow{Components: disableComponents(v.Components)})
		case discordgo.ActionsRow:
			out = append(out, discordgo.ActionsRow{Components: disableComponents(v.Components)})
		case *discordgo.Button:
			b := *v
			b.Disabled = true
			out = append(out, b)
		case discordgo.Button:
			v.Disabled = true
			out = append(out, v)
		default:
			out = append(out, c)
		}
	}
	return out
}

// SpawnChannel adapts Discord to the spawner's view of a channel.
type SpawnChannel struct {
	*Discord
}

func (c SpawnChannel) Guild(channelID string) (string, error) {
	return c.GuildOf(channelID)
}
