package discord

import (
	"github.com/bwmarrin/discordgo"
)

// Platform is the set of Discord actions the bot performs. The session
// adapter implements it for production; tests use a recording fake.
type Platform interface {
	Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	EditResponse(i *discordgo.Interaction, edit *discordgo.WebhookEdit) error
	DeleteResponse(i *discordgo.Interaction) error
	Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) error

	DeleteMessage(channelID, messageID string) error
	RecentMessages(channelID string, limit int) ([]*discordgo.Message, error)
	BulkDelete(channelID string, messageIDs []string) error
	SendMessage(channelID, content string) (*discordgo.Message, error)
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	SendDirect(userID, content string) error

	Guild(guildID string) (*discordgo.Guild, error)
	Guilds() []*discordgo.Guild
	Channel(channelID string) (*discordgo.Channel, error)
	GuildMembers(guildID string) ([]*discordgo.Member, error)
	GuildRoles(guildID string) ([]*discordgo.Role, error)

	SetVerificationLevel(guildID string, level discordgo.VerificationLevel) error
	SetPermissionOverwrite(channelID, roleID string, allow, deny int64) error
}

// membersPageSize is the largest page the members endpoint returns
const membersPageSize = 1000

// sessionPlatform implements Platform over a discordgo session
type sessionPlatform struct {
	s *discordgo.Session
}

// NewSessionPlatform adapts a discordgo session to Platform
func NewSessionPlatform(s *discordgo.Session) Platform {
	return &sessionPlatform{s: s}
}

func (p *sessionPlatform) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return p.s.InteractionRespond(i, resp)
}

func (p *sessionPlatform) EditResponse(i *discordgo.Interaction, edit *discordgo.WebhookEdit) error {
	_, err := p.s.InteractionResponseEdit(i, edit)
	return err
}

func (p *sessionPlatform) DeleteResponse(i *discordgo.Interaction) error {
	return p.s.InteractionResponseDelete(i)
}

func (p *sessionPlatform) Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) error {
	_, err := p.s.FollowupMessageCreate(i, true, params)
	return err
}

func (p *sessionPlatform) DeleteMessage(channelID, messageID string) error {
	return p.s.ChannelMessageDelete(channelID, messageID)
}

func (p *sessionPlatform) RecentMessages(channelID string, limit int) ([]*discordgo.Message, error) {
	return p.s.ChannelMessages(channelID, limit, "", "", "")
}

func (p *sessionPlatform) BulkDelete(channelID string, messageIDs []string) error {
	switch len(messageIDs) {
	case 0:
		return nil
	case 1:
		// the bulk endpoint rejects fewer than two ids
		return p.s.ChannelMessageDelete(channelID, messageIDs[0])
	default:
		return p.s.ChannelMessagesBulkDelete(channelID, messageIDs)
	}
}

func (p *sessionPlatform) SendMessage(channelID, content string) (*discordgo.Message, error) {
	return p.s.ChannelMessageSend(channelID, content)
}

func (p *sessionPlatform) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return p.s.ChannelMessageSendEmbed(channelID, embed)
}

func (p *sessionPlatform) SendDirect(userID, content string) error {
	ch, err := p.s.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = p.s.ChannelMessageSend(ch.ID, content)
	return err
}

func (p *sessionPlatform) Guild(guildID string) (*discordgo.Guild, error) {
	if p.s.State != nil {
		if g, err := p.s.State.Guild(guildID); err == nil {
			return g, nil
		}
	}
	return p.s.Guild(guildID)
}

func (p *sessionPlatform) Guilds() []*discordgo.Guild {
	if p.s.State == nil {
		return nil
	}
	p.s.State.RLock()
	defer p.s.State.RUnlock()
	out := make([]*discordgo.Guild, len(p.s.State.Guilds))
	copy(out, p.s.State.Guilds)
	return out
}

func (p *sessionPlatform) Channel(channelID string) (*discordgo.Channel, error) {
	if p.s.State != nil {
		if ch, err := p.s.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}
	return p.s.Channel(channelID)
}

func (p *sessionPlatform) GuildMembers(guildID string) ([]*discordgo.Member, error) {
	var all []*discordgo.Member
	after := ""
	for {
		page, err := p.s.GuildMembers(guildID, after, membersPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < membersPageSize {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (p *sessionPlatform) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	return p.s.GuildRoles(guildID)
}

func (p *sessionPlatform) SetVerificationLevel(guildID string, level discordgo.VerificationLevel) error {
	_, err := p.s.GuildEdit(guildID, &discordgo.GuildParams{VerificationLevel: &level})
	return err
}

func (p *sessionPlatform) SetPermissionOverwrite(channelID, roleID string, allow, deny int64) error {
	return p.s.ChannelPermissionSet(channelID, roleID, discordgo.PermissionOverwriteTypeRole, allow, deny)
}
