// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category (utils, mod, security).
package commands

import (
	"github.com/PancyStudios/NucleoBotGo/internal/commands/mod"
	"github.com/PancyStudios/NucleoBotGo/internal/commands/security"
	"github.com/PancyStudios/NucleoBotGo/internal/commands/utils"
	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
)

// All builds every command in registration order. The definitions do not
// touch svc, so tooling that only publishes them may pass nil.
func All(svc *moderation.Services, bridge utils.BridgeStatus) []*discord.Command {
	var out []*discord.Command
	// Utility commands (/info, /send-embed)
	out = append(out, utils.Commands(svc, bridge)...)
	// Moderation commands (/block-word, /warn, /remove-warn, /warns, /nuke-chat, /lock-channel)
	out = append(out, mod.Commands(svc)...)
	// Security commands (/system-isolation, /permissions-scan)
	out = append(out, security.Commands(svc)...)
	return out
}

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, svc *moderation.Services, bridge utils.BridgeStatus) {
	logger.System("📋 Registrando comandos del bot...", "Commands")

	for _, cmd := range All(svc, bridge) {
		client.CommandHandler.RegisterCommand(cmd)
	}

	logger.Success("✅ Comandos registrados", "Commands")
}
