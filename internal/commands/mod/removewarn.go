package mod

import (
	"fmt"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// createRemoveWarnCommand creates the /remove-warn command
func createRemoveWarnCommand(svc *moderation.Services) *discord.Command {
	return discord.NewCommand(
		"remove-warn",
		"🧹 Limpiar advertencias de un usuario",
		"mod",
		func(ctx *discord.CommandContext) error {
			return removeWarnHandler(ctx, svc)
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Usuario",
			Required:    true,
		},
	).WithCapability(discord.CapabilityModerateMembers).AsDeferred().AsPrivate()
}

// removeWarnHandler clears every warning of the user in this guild
func removeWarnHandler(ctx *discord.CommandContext, svc *moderation.Services) error {
	target := ctx.GetUserOption("user")
	if target == nil {
		return ctx.Reply("❌ Debes especificar un usuario válido.")
	}

	prev, err := svc.Warns.GetWarns(ctx.Context, target.ID, ctx.GuildID())
	if err != nil {
		return err
	}
	if prev.WarnCount == 0 {
		return ctx.Reply(fmt.Sprintf("ℹ️ <@%s> no tiene advertencias.", target.ID))
	}

	if err := svc.Warns.ClearWarns(ctx.Context, target.ID, ctx.GuildID()); err != nil {
		return err
	}

	svc.Audit.Record(ctx.Context, models.AuditEventWarn,
		fmt.Sprintf("WARN_CLEAR -> %s | %d advertencias eliminadas", target.String(), prev.WarnCount),
		ctx.User().String(), ctx.GuildID())

	dm := fmt.Sprintf("ℹ️ Tus advertencias en **%s** han sido eliminadas.", guildName(ctx))
	if err := ctx.Platform.SendDirect(target.ID, dm); err != nil {
		logger.Debug("No se pudo enviar DM a "+target.String(), "CMD-RemoveWarn")
	}

	return ctx.Reply(fmt.Sprintf("✅ Advertencias de <@%s> eliminadas (%d).", target.ID, prev.WarnCount))
}
