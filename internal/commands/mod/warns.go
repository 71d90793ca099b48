package mod

import (
	"fmt"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// createWarnsCommand creates the /warns command
func createWarnsCommand(svc *moderation.Services) *discord.Command {
	return discord.NewCommand(
		"warns",
		"🔖 Consultar advertencias de un usuario",
		"mod",
		func(ctx *discord.CommandContext) error {
			return warnsHandler(ctx, svc)
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

func warnsHandler(ctx *discord.CommandContext, svc *moderation.Services) error {
	target := ctx.GetUserOption("user")
	if target == nil {
		return ctx.Reply("❌ Debes especificar un usuario.")
	}

	rec, err := svc.Warns.GetWarns(ctx.Context, target.ID, ctx.GuildID())
	if err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🔖 - Advertencias de %s", target.Username),
		Color: 0x00FF00,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "💫 - Developed by PancyStudios",
		},
	}

	if rec.WarnCount == 0 {
		embed.Description = fmt.Sprintf("No se han encontrado advertencias del usuario en este servidor\n\n> 💫 - **Cantidad de advertencias:** %s", rec.Ratio())
		return ctx.ReplyEmbed(embed)
	}

	embed.Color = 0xFFA500
	if rec.WarnCount >= models.WarnThreshold {
		embed.Color = 0xFF0000
	}
	embed.Description = fmt.Sprintf("> 💫 - **Cantidad de advertencias:** %s\n> 📝 - **Último motivo:** %s",
		rec.Ratio(), rec.LastWarnReason)
	if !rec.UpdatedAt.IsZero() {
		embed.Description += fmt.Sprintf("\n> 🕒 - **Última advertencia:** <t:%d:R>", rec.UpdatedAt.Unix())
	}
	return ctx.ReplyEmbed(embed)
}
