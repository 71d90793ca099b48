// Package mod - /warn command
package mod

import (
	"fmt"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// createWarnCommand creates the /warn command
func createWarnCommand(svc *moderation.Services) *discord.Command {
	return discord.NewCommand(
		"warn",
		"⚠️ Advertir usuario",
		"mod",
		func(ctx *discord.CommandContext) error {
			return warnHandler(ctx, svc)
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Usuario",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Motivo",
			Required:    true,
		},
	).WithCapability(discord.CapabilityModerateMembers).AsDeferred().AsPrivate()
}

// warnHandler handles the /warn command
func warnHandler(ctx *discord.CommandContext, svc *moderation.Services) error {
	target := ctx.GetUserOption("user")
	if target == nil {
		return ctx.Reply("❌ Debes especificar un usuario.")
	}
	if target.Bot {
		return ctx.Reply("❌ No se puede advertir a un bot.")
	}

	reason := ctx.GetStringOption("razon")
	if reason == "" {
		return ctx.Reply("❌ Debes especificar una razón.")
	}

	rec, err := svc.Warns.RecordWarn(ctx.Context, target.ID, ctx.GuildID(), reason)
	if err != nil {
		return err
	}

	svc.Audit.Record(ctx.Context, models.AuditEventWarn,
		fmt.Sprintf("WARN [%d] -> %s | Motivo: %s", rec.WarnCount, target.String(), reason),
		ctx.User().String(), ctx.GuildID())

	dm := fmt.Sprintf("%s Has recibido una advertencia en **%s** (%s).\nMotivo: %s",
		moderation.EmojiAlertRed, guildName(ctx), rec.Ratio(), reason)
	if err := ctx.Platform.SendDirect(target.ID, dm); err != nil {
		logger.Debug("No se pudo enviar DM de advertencia a "+target.String(), "CMD-Warn")
	}

	return ctx.Reply(fmt.Sprintf("%s **WARN [%d]** -> <@%s> | Motivo: %s (%s)",
		moderation.EmojiAlertRed, rec.WarnCount, target.ID, reason, rec.Ratio()))
}

// guildName returns the guild name, or its ID when the lookup fails
func guildName(ctx *discord.CommandContext) string {
	if g, err := ctx.Guild(); err == nil && g.Name != "" {
		return g.Name
	}
	return ctx.GuildID()
}
