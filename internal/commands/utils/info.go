package utils

import (
	"fmt"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/config"
	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
)

// createInfoCommand creates the /info command
func createInfoCommand(svc *moderation.Services, bridge BridgeStatus) *discord.Command {
	return discord.NewCommand(
		"info",
		"📋 Manual de protocolos",
		"utils",
		func(ctx *discord.CommandContext) error {
			return infoHandler(ctx, svc, bridge)
		},
	)
}

// infoHandler prints the protocol manual with the live state of the store
// and the dashboard bridge
func infoHandler(ctx *discord.CommandContext, svc *moderation.Services, bridge BridgeStatus) error {
	storeLine := "OK"
	if status, ok := svc.StoreStatus(ctx.Context); !ok {
		storeLine = "FALLO (" + status + ")"
	}

	bridgeLine := "OFFLINE"
	if bridge != nil && bridge() {
		bridgeLine = "ONLINE"
	}

	msg := fmt.Sprintf("%s **[TERMINAL_READY]**\n"+
		"- Protocolos cargados.\n"+
		"- Sync con la base de datos: %s.\n"+
		"- Bridge Dashboard: %s.\n"+
		"- Palabras en caché: %d | Versión: %s",
		moderation.EmojiAmongUs, storeLine, bridgeLine, svc.Filter.Size(), config.Version)

	if uptime := ctx.Client.Uptime(); uptime > 0 {
		msg += fmt.Sprintf(" | Uptime: %s", uptime.Truncate(time.Second))
	}
	return ctx.Reply(msg)
}
