// Package events provides a registry for organizing bot events.
// Events are organized by category (ready, guild, message, shard).
package events

import (
	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
)

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, scanner *moderation.Scanner) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	// Ready event (bot startup)
	RegisterReadyEvent(client)

	// Guild events (server join/leave)
	RegisterGuildEvents(client)

	// Message events (word filter)
	RegisterMessageEvents(client, scanner)

	// Gateway disconnect/resume
	RegisterShardEvents(client)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
