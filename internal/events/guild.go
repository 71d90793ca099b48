package events

import (
	"fmt"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// joinWindow separates a fresh join from the GUILD_CREATE replay on connect
const joinWindow = 10 * time.Second

// RegisterGuildEvents registers all guild-related event handlers
func RegisterGuildEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildCreate(newGuildCreateHandler(client.Platform, time.Now))
	client.EventHandler.OnGuildDelete(onGuildDelete)
}

// newGuildCreateHandler greets guilds the bot has just joined
func newGuildCreateHandler(platform discord.Platform, now func() time.Time) discord.GuildCreateHandler {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		if g.Guild == nil || g.JoinedAt.Before(now().Add(-joinWindow)) {
			return
		}

		logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")
		logger.Debug(fmt.Sprintf("   Miembros: %d | Canales: %d", g.MemberCount, len(g.Channels)), "Guild")

		if g.SystemChannelID == "" {
			return
		}

		welcome := &discordgo.MessageEmbed{
			Title:       moderation.EmojiAmongUs + " NÚCLEO CONECTADO",
			Description: "Hola, soy **NucleoBot**. Usa `/info` para ver el estado de los protocolos.",
			Color:       0x00ffcc,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "🔧 Moderación", Value: "`/warn`, `/nuke-chat`, `/lock-channel`", Inline: true},
				{Name: "🛡️ Seguridad", Value: "`/system-isolation`, `/permissions-scan`", Inline: true},
				{Name: "🚫 Filtro", Value: "`/block-word`", Inline: true},
			},
			Footer:    &discordgo.MessageEmbedFooter{Text: "NucleoBot"},
			Timestamp: now().Format(time.RFC3339),
		}

		if _, err := platform.SendEmbed(g.SystemChannelID, welcome); err != nil {
			logger.Error(fmt.Sprintf("Error enviando mensaje de bienvenida: %v", err), "Guild")
		}
	}
}

// onGuildDelete is called when the bot is removed from a server
func onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		logger.Warn(fmt.Sprintf("⚠️ Servidor no disponible: %s", g.ID), "Guild")
		return
	}
	logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")
}
