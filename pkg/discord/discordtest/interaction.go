package discordtest

import (
	"github.com/bwmarrin/discordgo"
)

// InteractionBuilder assembles a slash command interaction
type InteractionBuilder struct {
	i    *discordgo.InteractionCreate
	data discordgo.ApplicationCommandInteractionData
}

// Command starts an interaction for the named command, invoked by user in
// guildID ("" for a DM) with the given member permissions
func Command(name, guildID string, user *discordgo.User, perms int64) *InteractionBuilder {
	it := &discordgo.Interaction{
		ID:        "interaction-" + name,
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: "channel-1",
	}
	if guildID != "" {
		it.Member = &discordgo.Member{User: user, GuildID: guildID, Permissions: perms}
	} else {
		it.User = user
	}
	return &InteractionBuilder{
		i: &discordgo.InteractionCreate{Interaction: it},
		data: discordgo.ApplicationCommandInteractionData{
			ID:       "cmd-" + name,
			Name:     name,
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{},
		},
	}
}

// InChannel sets the channel the command was used in
func (b *InteractionBuilder) InChannel(channelID string) *InteractionBuilder {
	b.i.ChannelID = channelID
	return b
}

// String adds a string option
func (b *InteractionBuilder) String(name, value string) *InteractionBuilder {
	b.add(name, discordgo.ApplicationCommandOptionString, value)
	return b
}

// Int adds an integer option (Discord sends numbers as float64)
func (b *InteractionBuilder) Int(name string, value int64) *InteractionBuilder {
	b.add(name, discordgo.ApplicationCommandOptionInteger, float64(value))
	return b
}

// Bool adds a boolean option
func (b *InteractionBuilder) Bool(name string, value bool) *InteractionBuilder {
	b.add(name, discordgo.ApplicationCommandOptionBoolean, value)
	return b
}

// User adds a user option and its resolved user
func (b *InteractionBuilder) User(name string, u *discordgo.User) *InteractionBuilder {
	b.add(name, discordgo.ApplicationCommandOptionUser, u.ID)
	if b.data.Resolved.Users == nil {
		b.data.Resolved.Users = map[string]*discordgo.User{}
	}
	b.data.Resolved.Users[u.ID] = u
	return b
}

// Channel adds a channel option and its resolved channel
func (b *InteractionBuilder) Channel(name string, ch *discordgo.Channel) *InteractionBuilder {
	b.add(name, discordgo.ApplicationCommandOptionChannel, ch.ID)
	if b.data.Resolved.Channels == nil {
		b.data.Resolved.Channels = map[string]*discordgo.Channel{}
	}
	b.data.Resolved.Channels[ch.ID] = ch
	return b
}

func (b *InteractionBuilder) add(name string, typ discordgo.ApplicationCommandOptionType, value interface{}) {
	b.data.Options = append(b.data.Options, &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  typ,
		Value: value,
	})
}

// Build returns the interaction event
func (b *InteractionBuilder) Build() *discordgo.InteractionCreate {
	b.i.Data = b.data
	return b.i
}
