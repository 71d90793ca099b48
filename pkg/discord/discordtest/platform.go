// Package discordtest provides a recording Platform and interaction builders
// for testing commands without a gateway connection.
package discordtest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// ErrNotFound is returned for unknown guilds and channels
var ErrNotFound = errors.New("discordtest: not found")

// Response is one answer sent through the interaction endpoints
type Response struct {
	Kind      string // respond, defer, edit, followup
	Content   string
	Embeds    []*discordgo.MessageEmbed
	Ephemeral bool
}

// SentEmbed is an embed posted to a channel
type SentEmbed struct {
	ChannelID string
	Embed     *discordgo.MessageEmbed
}

// Overwrite is a recorded permission overwrite
type Overwrite struct {
	ChannelID   string
	RoleID      string
	Allow, Deny int64
}

// Platform is an in-memory discord.Platform that records every call
type Platform struct {
	mu sync.Mutex

	GuildsByID   map[string]*discordgo.Guild
	ChannelsByID map[string]*discordgo.Channel
	Members      map[string][]*discordgo.Member
	Roles        map[string][]*discordgo.Role
	Messages     map[string][]*discordgo.Message

	// Errs makes the named method fail, e.g. Errs["BulkDelete"]. The
	// "Defer" key fails only deferred acknowledgments.
	Errs map[string]error

	Responses        []Response
	DeletedResponses int
	Deleted          []string
	BulkDeleted      []string
	Sent             []string
	Embeds           []SentEmbed
	Directs          map[string][]string
	Verification     map[string]discordgo.VerificationLevel
	Overwrites       []Overwrite

	nextID int
}

// NewPlatform creates an empty fake platform
func NewPlatform() *Platform {
	return &Platform{
		GuildsByID:   map[string]*discordgo.Guild{},
		ChannelsByID: map[string]*discordgo.Channel{},
		Members:      map[string][]*discordgo.Member{},
		Roles:        map[string][]*discordgo.Role{},
		Messages:     map[string][]*discordgo.Message{},
		Errs:         map[string]error{},
		Directs:      map[string][]string{},
		Verification: map[string]discordgo.VerificationLevel{},
	}
}

// AddGuild registers a guild and its channels
func (p *Platform) AddGuild(g *discordgo.Guild) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GuildsByID[g.ID] = g
	for _, ch := range g.Channels {
		p.ChannelsByID[ch.ID] = ch
	}
	if g.Roles != nil {
		p.Roles[g.ID] = g.Roles
	}
}

// AddChannel registers a channel
func (p *Platform) AddChannel(ch *discordgo.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ChannelsByID[ch.ID] = ch
}

// LastResponse returns the most recent interaction answer
func (p *Platform) LastResponse() (Response, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Responses) == 0 {
		return Response{}, false
	}
	return p.Responses[len(p.Responses)-1], true
}

// Answers returns the interaction answers that carry content, skipping
// deferrals
func (p *Platform) Answers() []Response {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Response
	for _, r := range p.Responses {
		if r.Kind != "defer" {
			out = append(out, r)
		}
	}
	return out
}

func (p *Platform) fail(method string) error {
	return p.Errs[method]
}

func (p *Platform) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Respond"); err != nil {
		return err
	}
	r := Response{Kind: "respond"}
	if resp.Type == discordgo.InteractionResponseDeferredChannelMessageWithSource {
		if err := p.fail("Defer"); err != nil {
			return err
		}
		r.Kind = "defer"
	}
	if resp.Data != nil {
		r.Content = resp.Data.Content
		r.Embeds = resp.Data.Embeds
		r.Ephemeral = resp.Data.Flags&discordgo.MessageFlagsEphemeral != 0
	}
	p.Responses = append(p.Responses, r)
	return nil
}

func (p *Platform) EditResponse(i *discordgo.Interaction, edit *discordgo.WebhookEdit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("EditResponse"); err != nil {
		return err
	}
	r := Response{Kind: "edit"}
	if edit.Content != nil {
		r.Content = *edit.Content
	}
	if edit.Embeds != nil {
		r.Embeds = *edit.Embeds
	}
	// edits keep the visibility of the deferral
	for j := len(p.Responses) - 1; j >= 0; j-- {
		if p.Responses[j].Kind == "defer" {
			r.Ephemeral = p.Responses[j].Ephemeral
			break
		}
	}
	p.Responses = append(p.Responses, r)
	return nil
}

func (p *Platform) DeleteResponse(i *discordgo.Interaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("DeleteResponse"); err != nil {
		return err
	}
	p.DeletedResponses++
	return nil
}

func (p *Platform) Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Followup"); err != nil {
		return err
	}
	p.Responses = append(p.Responses, Response{
		Kind:      "followup",
		Content:   params.Content,
		Embeds:    params.Embeds,
		Ephemeral: params.Flags&discordgo.MessageFlagsEphemeral != 0,
	})
	return nil
}

func (p *Platform) DeleteMessage(channelID, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("DeleteMessage"); err != nil {
		return err
	}
	p.Deleted = append(p.Deleted, messageID)
	return nil
}

func (p *Platform) RecentMessages(channelID string, limit int) ([]*discordgo.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("RecentMessages"); err != nil {
		return nil, err
	}
	msgs := p.Messages[channelID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]*discordgo.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (p *Platform) BulkDelete(channelID string, messageIDs []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("BulkDelete"); err != nil {
		return err
	}
	p.BulkDeleted = append(p.BulkDeleted, messageIDs...)
	return nil
}

func (p *Platform) SendMessage(channelID, content string) (*discordgo.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("SendMessage"); err != nil {
		return nil, err
	}
	p.Sent = append(p.Sent, content)
	p.nextID++
	return &discordgo.Message{ID: fmt.Sprintf("sent-%d", p.nextID), ChannelID: channelID, Content: content}, nil
}

func (p *Platform) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("SendEmbed"); err != nil {
		return nil, err
	}
	p.Embeds = append(p.Embeds, SentEmbed{ChannelID: channelID, Embed: embed})
	p.nextID++
	return &discordgo.Message{ID: fmt.Sprintf("sent-%d", p.nextID), ChannelID: channelID}, nil
}

func (p *Platform) SendDirect(userID, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("SendDirect"); err != nil {
		return err
	}
	p.Directs[userID] = append(p.Directs[userID], content)
	return nil
}

func (p *Platform) Guild(guildID string) (*discordgo.Guild, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Guild"); err != nil {
		return nil, err
	}
	g, ok := p.GuildsByID[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

func (p *Platform) Guilds() []*discordgo.Guild {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*discordgo.Guild, 0, len(p.GuildsByID))
	for _, g := range p.GuildsByID {
		out = append(out, g)
	}
	return out
}

func (p *Platform) Channel(channelID string) (*discordgo.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("Channel"); err != nil {
		return nil, err
	}
	ch, ok := p.ChannelsByID[channelID]
	if !ok {
		return nil, ErrNotFound
	}
	return ch, nil
}

func (p *Platform) GuildMembers(guildID string) ([]*discordgo.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("GuildMembers"); err != nil {
		return nil, err
	}
	return p.Members[guildID], nil
}

func (p *Platform) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("GuildRoles"); err != nil {
		return nil, err
	}
	return p.Roles[guildID], nil
}

func (p *Platform) SetVerificationLevel(guildID string, level discordgo.VerificationLevel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("SetVerificationLevel"); err != nil {
		return err
	}
	p.Verification[guildID] = level
	if g, ok := p.GuildsByID[guildID]; ok {
		g.VerificationLevel = level
	}
	return nil
}

func (p *Platform) SetPermissionOverwrite(channelID, roleID string, allow, deny int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("SetPermissionOverwrite"); err != nil {
		return err
	}
	p.Overwrites = append(p.Overwrites, Overwrite{ChannelID: channelID, RoleID: roleID, Allow: allow, Deny: deny})
	if ch, ok := p.ChannelsByID[channelID]; ok {
		replaced := false
		for _, ow := range ch.PermissionOverwrites {
			if ow.ID == roleID {
				ow.Allow, ow.Deny = allow, deny
				replaced = true
			}
		}
		if !replaced {
			ch.PermissionOverwrites = append(ch.PermissionOverwrites, &discordgo.PermissionOverwrite{
				ID: roleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: allow, Deny: deny,
			})
		}
	}
	return nil
}
