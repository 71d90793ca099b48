package utils

import (
	"fmt"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

const (
	embedColor   = 0x00ffcc
	defaultTitle = "COMUNICADO DEL NÚCLEO"
)

// createSendEmbedCommand creates the /send-embed command
func createSendEmbedCommand(svc *moderation.Services) *discord.Command {
	return discord.NewCommand(
		"send-embed",
		"📤 Mensaje formal",
		"utils",
		func(ctx *discord.CommandContext) error {
			return sendEmbedHandler(ctx, svc, time.Now())
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "canal",
			Description:  "Donde enviar",
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "texto",
			Description: "Contenido",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "titulo",
			Description: "Título del comunicado",
			Required:    false,
		},
	).WithCapability(discord.CapabilityManageMessages).AsDeferred().AsPrivate()
}

func sendEmbedHandler(ctx *discord.CommandContext, svc *moderation.Services, now time.Time) error {
	target := ctx.GetChannelOption("canal")
	if target == nil {
		return ctx.Reply("❌ Debes especificar un canal.")
	}
	text := ctx.GetStringOption("texto")
	if text == "" {
		return ctx.Reply("❌ Debes especificar el contenido.")
	}
	title := ctx.GetStringOption("titulo")
	if title == "" {
		title = defaultTitle
	}

	embed := &discordgo.MessageEmbed{
		Title:       moderation.EmojiAlertBlue + " " + title,
		Description: text,
		Color:       embedColor,
		Timestamp:   now.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Auth: " + ctx.User().String(),
		},
	}

	if _, err := ctx.Platform.SendEmbed(target.ID, embed); err != nil {
		return err
	}

	svc.Audit.Record(ctx.Context, models.AuditEventInfo,
		fmt.Sprintf("COMUNICADO: \"%s\" en <#%s>", title, target.ID),
		ctx.User().String(), ctx.GuildID())

	return ctx.Reply("✅ Transmisión enviada.")
}
