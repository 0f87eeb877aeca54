package bot

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/intrntsrfr/countrydex/catalog"
	"github.com/intrntsrfr/countrydex/config"
	"github.com/intrntsrfr/countrydex/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"<#163454407999094786>", "163454407999094786", false},
		{"163454407999094786", "163454407999094786", false},
		{"France", "", true},
		{"<#12>", "", true},
	}
	for _, tt := range tests {
		got, err := ParseChannel(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrNotSnowflake, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseUser(t *testing.T) {
	for _, in := range []string{"<@163454407999094786>", "<@!163454407999094786>", "163454407999094786"} {
		got, err := ParseUser(in)
		require.NoError(t, err, in)
		assert.Equal(t, "163454407999094786", got)
	}
	_, err := ParseUser("@everyone")
	assert.ErrorIs(t, err, ErrNotSnowflake)
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"yes", true, false},
		{"True", true, false},
		{"1", true, false},
		{"on", true, false},
		{"no", false, false},
		{"FALSE", false, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := ParseBool(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrBadBool, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseIntAndAmount(t *testing.T) {
	n, err := ParseInt("+12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = ParseInt("-35")
	require.NoError(t, err)
	assert.Equal(t, -35, n)

	_, err = ParseInt("ten")
	assert.Error(t, err)

}

func TestParseAmount(t *testing.T) {
	count := func(v float64) *discordgo.ApplicationCommandInteractionDataOption {
		return &discordgo.ApplicationCommandInteractionDataOption{
			Name: "n", Type: discordgo.ApplicationCommandOptionInteger, Value: v,
		}
	}

	n, err := ParseAmount(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "missing option")

	n, err = ParseAmount(count(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, v := range []float64{0, -1} {
		_, err := ParseAmount(count(v))
		assert.ErrorIs(t, err, ErrNotPositive, v)
	}
}

func TestResolveCollectibleAndSpecial(t *testing.T) {
	db, err := database.NewJsonDatabase("")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, db.CreateSpecial(ctx, &database.Special{Name: "Hanukkah"}))

	b := &Bot{
		db:     db,
		config: config.Default(),
		catalog: catalog.NewStatic([]*database.Collectible{
			{ID: 1, Name: "France", Rarity: 1, Enabled: true},
			{ID: 2, Name: "United Kingdom", Rarity: 1, Enabled: true},
		}),
	}

	c, err := b.resolveCollectible("france")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)

	c, err = b.resolveCollectible(`"united kingdom"`)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.ID)

	_, err = b.resolveCollectible("Atlantis")
	assert.ErrorIs(t, err, errNoCollectible)

	s, err := b.resolveSpecial(ctx, "Hanukkah")
	require.NoError(t, err)
	assert.Equal(t, "Hanukkah", s.Name)

	s, err = b.resolveSpecial(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, s)

	_, err = b.resolveSpecial(ctx, "Purim")
	assert.ErrorIs(t, err, errUnknownSpecial)
}
