// Package discord provides command types and structures.
package discord

import (
	"context"
	"sync/atomic"

	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// Capability is the permission an invoker must hold to run a command
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityManageMessages
	CapabilityManageChannels
	CapabilityModerateMembers
	CapabilityAdministrator
	CapabilityGuildOwner
)

// String returns the capability name shown in logs
func (c Capability) String() string {
	switch c {
	case CapabilityNone:
		return "none"
	case CapabilityManageMessages:
		return "manage_messages"
	case CapabilityManageChannels:
		return "manage_channels"
	case CapabilityModerateMembers:
		return "moderate_members"
	case CapabilityAdministrator:
		return "administrator"
	case CapabilityGuildOwner:
		return "guild_owner"
	default:
		return "unknown"
	}
}

// Permission returns the Discord permission bit behind the capability.
// None and GuildOwner are not permission based and return 0.
func (c Capability) Permission() int64 {
	switch c {
	case CapabilityManageMessages:
		return discordgo.PermissionManageMessages
	case CapabilityManageChannels:
		return discordgo.PermissionManageChannels
	case CapabilityModerateMembers:
		return discordgo.PermissionModerateMembers
	case CapabilityAdministrator, CapabilityGuildOwner:
		return discordgo.PermissionAdministrator
	default:
		return 0
	}
}

// Timing says whether the command is acknowledged before its handler runs
type Timing int

const (
	Immediate Timing = iota
	Deferred
)

// Visibility says who sees the command's answer
type Visibility int

const (
	Public Visibility = iota
	Private
)

// CommandContext provides context for command execution
type CommandContext struct {
	Context     context.Context
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Client      *ExtendedClient
	Platform    Platform

	command  *Command
	deferred bool
	replied  atomic.Bool
}

// Command represents a Discord slash command
type Command struct {
	Name        string
	Description string
	Category    string
	Options     []*discordgo.ApplicationCommandOption
	Capability  Capability
	Timing      Timing
	Visibility  Visibility
	Run         CommandRunFunc
}

// CommandRunFunc is the function type for command execution
type CommandRunFunc func(ctx *CommandContext) error

// NewCommand creates a new Command with required fields.
// It answers immediately, publicly, and requires no capability.
func NewCommand(name, description, category string, run CommandRunFunc) *Command {
	return &Command{
		Name:        name,
		Description: description,
		Category:    category,
		Run:         run,
	}
}

// WithOptions sets the command options
func (c *Command) WithOptions(opts ...*discordgo.ApplicationCommandOption) *Command {
	c.Options = opts
	return c
}

// WithCapability sets the capability required to run the command
func (c *Command) WithCapability(capability Capability) *Command {
	c.Capability = capability
	return c
}

// AsDeferred acknowledges the command before running its handler
func (c *Command) AsDeferred() *Command {
	c.Timing = Deferred
	return c
}

// AsPrivate makes the command's answers visible only to the invoker
func (c *Command) AsPrivate() *Command {
	c.Visibility = Private
	return c
}

// ToApplicationCommand converts the command to a Discord application command
func (c *Command) ToApplicationCommand() *discordgo.ApplicationCommand {
	dmAllowed := c.Capability == CapabilityNone
	appCmd := &discordgo.ApplicationCommand{
		Name:         c.Name,
		Description:  c.Description,
		Options:      c.Options,
		DMPermission: &dmAllowed,
	}
	if perm := c.Capability.Permission(); perm != 0 {
		appCmd.DefaultMemberPermissions = &perm
	}
	return appCmd
}

func (c *Command) flags() discordgo.MessageFlags {
	if c != nil && c.Visibility == Private {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

// Replied reports whether the command already produced its answer
func (ctx *CommandContext) Replied() bool {
	return ctx.replied.Load()
}

// Defer acknowledges the interaction with the command's visibility
func (ctx *CommandContext) Defer() error {
	err := ctx.Platform.Respond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: ctx.command.flags()},
	})
	if err == nil {
		ctx.deferred = true
	}
	return err
}

// Reply answers the interaction with the command's visibility. After Defer
// it edits the acknowledgment.
func (ctx *CommandContext) Reply(content string) error {
	return ctx.respond(&discordgo.InteractionResponseData{Content: content, Flags: ctx.command.flags()})
}

// ReplyEmbed answers the interaction with an embed
func (ctx *CommandContext) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.respond(&discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}, Flags: ctx.command.flags()})
}

// ReplyEphemeral sends an answer visible only to the user
func (ctx *CommandContext) ReplyEphemeral(content string) error {
	return ctx.private(&discordgo.InteractionResponseData{Content: content})
}

// ReplyEphemeralEmbed sends an embed answer visible only to the user
func (ctx *CommandContext) ReplyEphemeralEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.private(&discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}})
}

func (ctx *CommandContext) respond(data *discordgo.InteractionResponseData) error {
	var err error
	if ctx.deferred {
		edit := &discordgo.WebhookEdit{}
		if data.Content != "" {
			edit.Content = &data.Content
		}
		if len(data.Embeds) > 0 {
			edit.Embeds = &data.Embeds
		}
		err = ctx.Platform.EditResponse(ctx.Interaction.Interaction, edit)
	} else {
		err = ctx.Platform.Respond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
	}
	if err == nil {
		ctx.replied.Store(true)
	}
	return err
}

// private answers ephemerally. A public acknowledgment cannot be turned
// private, so it is removed and the answer goes out as a private followup.
func (ctx *CommandContext) private(data *discordgo.InteractionResponseData) error {
	data.Flags = discordgo.MessageFlagsEphemeral
	if ctx.replied.Load() {
		return ctx.followup(data)
	}
	if !ctx.deferred || ctx.command.flags() == discordgo.MessageFlagsEphemeral {
		return ctx.respond(data)
	}

	if err := ctx.Platform.DeleteResponse(ctx.Interaction.Interaction); err != nil {
		logger.Warn("No se pudo borrar la respuesta diferida: "+err.Error(), "Command")
	}
	return ctx.followup(data)
}

func (ctx *CommandContext) followup(data *discordgo.InteractionResponseData) error {
	err := ctx.Platform.Followup(ctx.Interaction.Interaction, &discordgo.WebhookParams{
		Content: data.Content,
		Embeds:  data.Embeds,
		Flags:   data.Flags,
	})
	if err == nil {
		ctx.replied.Store(true)
	}
	return err
}

// GetOption retrieves an option value by name
func (ctx *CommandContext) GetOption(name string) *discordgo.ApplicationCommandInteractionDataOption {
	options := ctx.Interaction.ApplicationCommandData().Options
	return findOption(options, name)
}

// findOption recursively finds an option by name
func findOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Name == name {
			return opt
		}
		if len(opt.Options) > 0 {
			if found := findOption(opt.Options, name); found != nil {
				return found
			}
		}
	}
	return nil
}

// GetStringOption retrieves a string option value
func (ctx *CommandContext) GetStringOption(name string) string {
	opt := ctx.GetOption(name)
	if opt == nil {
		return ""
	}
	return opt.StringValue()
}

// GetIntOption retrieves an integer option value
func (ctx *CommandContext) GetIntOption(name string) int64 {
	opt := ctx.GetOption(name)
	if opt == nil {
		return 0
	}
	return opt.IntValue()
}

// GetBoolOption retrieves a boolean option value
func (ctx *CommandContext) GetBoolOption(name string) bool {
	opt := ctx.GetOption(name)
	if opt == nil {
		return false
	}
	return opt.BoolValue()
}

// GetUserOption retrieves a user option from the resolved interaction data
func (ctx *CommandContext) GetUserOption(name string) *discordgo.User {
	opt := ctx.GetOption(name)
	if opt == nil {
		return nil
	}
	id, _ := opt.Value.(string)
	if resolved := ctx.Interaction.ApplicationCommandData().Resolved; resolved != nil {
		if u, ok := resolved.Users[id]; ok {
			return u
		}
	}
	if ctx.Session != nil {
		return opt.UserValue(ctx.Session)
	}
	return &discordgo.User{ID: id}
}

// GetChannelOption retrieves a channel option from the resolved interaction data
func (ctx *CommandContext) GetChannelOption(name string) *discordgo.Channel {
	opt := ctx.GetOption(name)
	if opt == nil {
		return nil
	}
	id, _ := opt.Value.(string)
	if resolved := ctx.Interaction.ApplicationCommandData().Resolved; resolved != nil {
		if ch, ok := resolved.Channels[id]; ok {
			return ch
		}
	}
	if ctx.Session != nil {
		return opt.ChannelValue(ctx.Session)
	}
	return &discordgo.Channel{ID: id}
}

// GuildID returns the guild where the interaction occurred ("" in DMs)
func (ctx *CommandContext) GuildID() string {
	return ctx.Interaction.GuildID
}

// ChannelID returns the channel where the interaction occurred
func (ctx *CommandContext) ChannelID() string {
	return ctx.Interaction.ChannelID
}

// Guild returns the guild where the interaction occurred
func (ctx *CommandContext) Guild() (*discordgo.Guild, error) {
	return ctx.Platform.Guild(ctx.Interaction.GuildID)
}

// Channel returns the channel where the interaction occurred
func (ctx *CommandContext) Channel() (*discordgo.Channel, error) {
	return ctx.Platform.Channel(ctx.Interaction.ChannelID)
}

// User returns the user who triggered the interaction
func (ctx *CommandContext) User() *discordgo.User {
	if ctx.Interaction.Member != nil && ctx.Interaction.Member.User != nil {
		return ctx.Interaction.Member.User
	}
	return ctx.Interaction.User
}

// Member returns the guild member who triggered the interaction
func (ctx *CommandContext) Member() *discordgo.Member {
	return ctx.Interaction.Member
}
