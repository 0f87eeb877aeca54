package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/countrydex/database"
)

var (
	ErrNotSnowflake   = errors.New("not a valid id or mention")
	ErrBadBool        = errors.New("not a valid yes/no value")
	ErrNotPositive    = errors.New("amount must be a positive integer")
	errNoCollectible  = errors.New("no such collectible")
	errUnknownSpecial = errors.New("no such special")
)

const (
	msgNotPositive = "Amount must be a positive integer."
	msgMissingArgs = "Please provide all required arguments."
)

func isSnowflake(s string) bool {
	if len(s) < 15 || len(s) > 21 {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

// ParseChannel accepts a channel mention or a raw channel id.
func ParseChannel(s string) (string, error) {
	id := TrimChannelString(s)
	if !isSnowflake(id) {
		return "", ErrNotSnowflake
	}
	return id, nil
}

// ParseUser accepts a user mention or a raw user id.
func ParseUser(s string) (string, error) {
	id := TrimUserString(s)
	if !isSnowflake(id) {
		return "", ErrNotSnowflake
	}
	return id, nil
}

func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "t", "1", "enable", "on":
		return true, nil
	case "no", "n", "false", "f", "0", "disable", "off":
		return false, nil
	}
	return false, ErrBadBool
}

func ParseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return n, nil
}

// ParseAmount reads a count option that must be at least one. A missing
// option counts as one.
func ParseAmount(o *discordgo.ApplicationCommandInteractionDataOption) (int, error) {
	if o == nil {
		return 1, nil
	}
	n := o.IntValue()
	if n < 1 {
		return 0, ErrNotPositive
	}
	return int(n), nil
}

func (b *Bot) resolveCollectible(name string) (*database.Collectible, error) {
	name = strings.Trim(strings.TrimSpace(name), `"`)
	if c, ok := b.catalog.ByName(name); ok {
		return c, nil
	}
	return nil, errNoCollectible
}

func (b *Bot) resolveSpecial(ctx context.Context, name string) (*database.Special, error) {
	if name == "" {
		return nil, nil
	}
	s, err := b.db.GetSpecialByName(ctx, name)
	if errors.Is(err, database.ErrNotFound) {
		return nil, errUnknownSpecial
	}
	return s, err
}

func (b *Bot) noSuchCollectible() string {
	return fmt.Sprintf("No such %v exists.", b.DisplayName())
}
