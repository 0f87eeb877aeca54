package kvstore

import "time"

type State int

const (
	StateOpen State = iota
	StateClaimed
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClaimed:
		return "claimed"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// Session tracks one spawned collectible until it is caught or expires.
type Session struct {
	ID            string
	CollectibleID int64
	Name          string
	GuildID       string
	ChannelID     string
	MessageID     string
	State         State
	ClaimedBy     string
	ClaimedAt     time.Time
	CreatedAt     time.Time
}

// Expired reports whether the claim window has passed at now.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return s.State == StateExpired || (s.State == StateOpen && now.Sub(s.CreatedAt) > timeout)
}
