package events

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/errors"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// scanTimeout bounds a single message scan, cache refresh included
const scanTimeout = 10 * time.Second

// RegisterMessageEvents runs every inbound message through the scanner
func RegisterMessageEvents(client *discord.ExtendedClient, scanner *moderation.Scanner) {
	client.EventHandler.OnMessageCreate(newMessageCreateHandler(scanner))
}

func newMessageCreateHandler(scanner *moderation.Scanner) discord.MessageCreateHandler {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		defer errors.RecoverMiddleware()()

		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()

		if res := scanner.Scan(ctx, m.Message); res.Matched && !res.Deleted {
			logger.Warn(fmt.Sprintf("Mensaje %s con palabra bloqueada no eliminado", m.ID), "Message")
		}
	}
}
