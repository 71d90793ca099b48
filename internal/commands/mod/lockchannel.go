package mod

import (
	"fmt"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// createLockChannelCommand creates the /lock-channel command
func createLockChannelCommand(svc *moderation.Services) *discord.Command {
	return discord.NewCommand(
		"lock-channel",
		"🔑 Bloqueo de canal",
		"mod",
		func(ctx *discord.CommandContext) error {
			return lockChannelHandler(ctx, svc)
		},
	).WithCapability(discord.CapabilityManageChannels).AsDeferred()
}

// lockChannelHandler toggles SendMessages for @everyone in the current channel
func lockChannelHandler(ctx *discord.CommandContext, svc *moderation.Services) error {
	channel, err := ctx.Channel()
	if err != nil {
		return err
	}
	roles, err := ctx.Platform.GuildRoles(ctx.GuildID())
	if err != nil {
		return err
	}

	// the @everyone role shares the guild ID
	everyoneID := ctx.GuildID()
	var base int64
	for _, r := range roles {
		if r.ID == everyoneID {
			base = r.Permissions
			break
		}
	}

	var allow, deny int64
	for _, ow := range channel.PermissionOverwrites {
		if ow.ID == everyoneID {
			allow, deny = ow.Allow, ow.Deny
			break
		}
	}

	canSend := (base&^deny|allow)&discordgo.PermissionSendMessages != 0
	if canSend {
		allow &^= discordgo.PermissionSendMessages
		deny |= discordgo.PermissionSendMessages
	} else {
		deny &^= discordgo.PermissionSendMessages
		allow |= discordgo.PermissionSendMessages
	}

	if err := ctx.Platform.SetPermissionOverwrite(channel.ID, everyoneID, allow, deny); err != nil {
		return err
	}

	state := "ABIERTO"
	if canSend {
		state = "CERRADO"
	}
	svc.Audit.Record(ctx.Context, models.AuditEventInfo,
		fmt.Sprintf("CANAL %s: #%s", state, channel.Name),
		ctx.User().String(), ctx.GuildID())

	return ctx.Reply(fmt.Sprintf("%s **CANAL**: %s", moderation.EmojiLock, state))
}
