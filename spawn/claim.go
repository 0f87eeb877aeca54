package spawn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/intrntsrfr/countrydex/database"
	"github.com/intrntsrfr/countrydex/kvstore"
	"github.com/intrntsrfr/countrydex/mint"
	"go.uber.org/zap"
)

type Outcome int

const (
	Caught Outcome = iota
	WrongName
	AlreadyCaught
	Expired
)

func (o Outcome) String() string {
	switch o {
	case Caught:
		return "caught"
	case WrongName:
		return "wrong_name"
	case AlreadyCaught:
		return "already_caught"
	case Expired:
		return "expired"
	}
	return "unknown"
}

type ClaimResult struct {
	Outcome     Outcome
	Session     *kvstore.Session
	Collectible *database.Collectible
	// set when Outcome is Caught
	Instance    *database.Instance
	FirstOfKind bool
}

// Reply is the message shown to the user who submitted the guess.
func (r *ClaimResult) Reply(userID, displayName string) string {
	switch r.Outcome {
	case Caught:
		msg := fmt.Sprintf("<@%v> You caught **%v!** `(#%d, %+d%%/%+d%%)`",
			userID, r.Collectible.Name, r.Instance.ID, r.Instance.AttackBonus, r.Instance.HealthBonus)
		if r.Instance.Shiny {
			msg += "\n✨ ***It's a shiny " + strings.ToLower(displayName) + "!*** ✨"
		}
		if r.FirstOfKind {
			msg += fmt.Sprintf("\nThis is a **new %v** that has been added to your completion!", strings.ToLower(displayName))
		}
		return msg
	case WrongName:
		return fmt.Sprintf("<@%v> Wrong name!", userID)
	case AlreadyCaught:
		return "I was caught already!"
	case Expired:
		return fmt.Sprintf("This %v ran away.", strings.ToLower(displayName))
	}
	return "Something went wrong."
}

// normalize trims s and collapses inner runs of whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Matches reports whether guess names the collectible.
func Matches(guess, name string) bool {
	return strings.EqualFold(normalize(guess), normalize(name))
}

// Claim adjudicates a guess submitted by userID for a spawn session. Exactly
// one correct guess per session results in a minted instance.
func (s *Spawner) Claim(ctx context.Context, sessionID, guildID, userID, guess string) (*ClaimResult, error) {
	res, err := s.claim(ctx, sessionID, guildID, userID, guess)
	if err != nil {
		s.metrics.Claim("error")
		return nil, err
	}
	s.metrics.Claim(res.Outcome.String())
	if res.Outcome == Caught {
		s.metrics.Minted(1)
	}
	return res, nil
}

func (s *Spawner) claim(ctx context.Context, sessionID, guildID, userID, guess string) (*ClaimResult, error) {
	sess, err := s.sessions.GetSpawn(sessionID)
	if errors.Is(err, kvstore.ErrSessionNotFound) {
		return &ClaimResult{Outcome: Expired}, nil
	}
	if err != nil {
		return nil, err
	}

	res := &ClaimResult{Session: sess}
	switch {
	case sess.State == kvstore.StateClaimed:
		res.Outcome = AlreadyCaught
		return res, nil
	case sess.Expired(s.now(), s.timeout):
		res.Outcome = Expired
		return res, nil
	}

	def, ok := s.catalog.Get(sess.CollectibleID)
	if !ok {
		return nil, fmt.Errorf("collectible %d is not in the catalog", sess.CollectibleID)
	}
	res.Collectible = def

	if !Matches(guess, def.Name) {
		res.Outcome = WrongName
		return res, nil
	}

	won, latest, err := s.sessions.ClaimSpawn(sessionID, userID, s.now())
	if err != nil {
		return nil, err
	}
	if !won {
		res.Outcome = AlreadyCaught
		if latest != nil {
			res.Session = latest
			if latest.State == kvstore.StateExpired {
				res.Outcome = Expired
			}
		}
		return res, nil
	}
	res.Session = latest
	s.disarm(sessionID)

	if guildID == "" {
		guildID = sess.GuildID
	}
	minted, err := s.minter.Mint(ctx, def, userID, mint.Options{
		ServerID:  guildID,
		SpawnedAt: sess.CreatedAt,
	})
	if err != nil {
		if rerr := s.sessions.ReopenSpawn(sessionID); rerr != nil {
			s.log.Error("failed to reopen spawn", zap.String("session", sessionID), zap.Error(rerr))
		} else {
			s.arm(sessionID, s.timeout-s.now().Sub(sess.CreatedAt))
		}
		return nil, fmt.Errorf("mint %v: %w", def.Name, err)
	}

	res.Outcome = Caught
	res.Instance = minted.Instance
	res.FirstOfKind = minted.FirstOfKind

	if latest.MessageID != "" {
		if err := s.channel.DisableButtons(latest.ChannelID, latest.MessageID); err != nil {
			s.log.Warn("failed to disable catch button", zap.String("session", sessionID), zap.Error(err))
		}
	}

	s.log.Info("caught",
		zap.String("session", sessionID),
		zap.String("user", userID),
		zap.String("collectible", def.Name),
		zap.Int64("instance", minted.Instance.ID),
	)
	return res, nil
}
