// Package mod provides the moderation commands: block-list, warn ledger,
// channel purge and lock. Each command is in its own file.
package mod

import (
	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
)

// Commands builds the moderation commands over svc
func Commands(svc *moderation.Services) []*discord.Command {
	return []*discord.Command{
		createBlockWordCommand(svc),
		createWarnCommand(svc),
		createRemoveWarnCommand(svc),
		createWarnsCommand(svc),
		createNukeChatCommand(svc),
		createLockChannelCommand(svc),
	}
}

// RegisterModCommands registers all moderation commands
func RegisterModCommands(client *discord.ExtendedClient, svc *moderation.Services) {
	for _, cmd := range Commands(svc) {
		client.CommandHandler.RegisterCommand(cmd)
	}
}
