package discord

import "github.com/bwmarrin/discordgo"

// fromState asks the state of every shard in turn, since a channel is only
// cached by the shard owning its guild.
func fromState[T any](d *Discord, get func(*discordgo.State) (T, error)) (T, error) {
	for _, s := range d.sessions {
		if v, err := get(s.State); err == nil {
			return v, nil
		}
	}
	var zero T
	return zero, discordgo.ErrStateNotFound
}

func (d *Discord) Channel(cid string) (*discordgo.Channel, error) {
	return fromState(d, func(st *discordgo.State) (*discordgo.Channel, error) {
		return st.Channel(cid)
	})
}

func (d *Discord) UserChannelPermissions(uid, cid string) (int64, error) {
	p, err := fromState(d, func(st *discordgo.State) (int64, error) {
		return st.UserChannelPermissions(uid, cid)
	})
	if err != nil {
		return -1, err
	}
	return p, nil
}

// BotUser is the user the sessions are logged in as.
func (d *Discord) BotUser() *discordgo.User {
	if d.Sess.State.User != nil {
		return d.Sess.State.User
	}
	return &discordgo.User{}
}
