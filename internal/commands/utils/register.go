// Package utils provides the informational and announcement commands
package utils

import (
	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
)

// BridgeStatus reports whether the dashboard bridge is serving
type BridgeStatus func() bool

// Commands builds the utility commands
func Commands(svc *moderation.Services, bridge BridgeStatus) []*discord.Command {
	return []*discord.Command{
		createInfoCommand(svc, bridge),
		createSendEmbedCommand(svc),
	}
}

// RegisterUtilsCommands registers all utility commands
func RegisterUtilsCommands(client *discord.ExtendedClient, svc *moderation.Services, bridge BridgeStatus) {
	for _, cmd := range Commands(svc, bridge) {
		client.CommandHandler.RegisterCommand(cmd)
	}
}
