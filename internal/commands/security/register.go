// Package security provides the guild-wide lockdown and audit commands
package security

import (
	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
)

// Commands builds the security commands over svc
func Commands(svc *moderation.Services) []*discord.Command {
	return []*discord.Command{
		createIsolationCommand(svc),
		createPermissionsScanCommand(),
	}
}

// RegisterSecurityCommands registers all security commands
func RegisterSecurityCommands(client *discord.ExtendedClient, svc *moderation.Services) {
	for _, cmd := range Commands(svc) {
		client.CommandHandler.RegisterCommand(cmd)
	}
}
