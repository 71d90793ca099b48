package mod

import (
	"fmt"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

const (
	// maxPurge is the most messages one bulk delete accepts
	maxPurge = 100
	// bulkDeleteMaxAge is how old a message may be and still be bulk deleted
	bulkDeleteMaxAge = 14 * 24 * time.Hour
)

// createNukeChatCommand creates the /nuke-chat command
func createNukeChatCommand(svc *moderation.Services) *discord.Command {
	minCount := 1.0
	return discord.NewCommand(
		"nuke-chat",
		"☢️ Purga masiva",
		"mod",
		func(ctx *discord.CommandContext) error {
			return nukeChatHandler(ctx, svc, time.Now())
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "cant",
			Description: "Cantidad de mensajes",
			Required:    true,
			MinValue:    &minCount,
			MaxValue:    maxPurge,
		},
	).WithCapability(discord.CapabilityManageMessages).AsDeferred().AsPrivate()
}

// nukeChatHandler deletes up to cant recent messages, skipping those too old
// for bulk deletion
func nukeChatHandler(ctx *discord.CommandContext, svc *moderation.Services, now time.Time) error {
	count := ctx.GetIntOption("cant")
	if count < 1 {
		return ctx.Reply("❌ La cantidad debe ser al menos 1.")
	}
	if count > maxPurge {
		count = maxPurge
	}

	msgs, err := ctx.Platform.RecentMessages(ctx.ChannelID(), int(count))
	if err != nil {
		return err
	}

	cutoff := now.Add(-bulkDeleteMaxAge)
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Timestamp.Before(cutoff) {
			continue
		}
		ids = append(ids, m.ID)
	}

	if err := ctx.Platform.BulkDelete(ctx.ChannelID(), ids); err != nil {
		return err
	}

	svc.Audit.Record(ctx.Context, models.AuditEventInfo,
		fmt.Sprintf("PURGA: %d mensajes en <#%s>", len(ids), ctx.ChannelID()),
		ctx.User().String(), ctx.GuildID())

	return ctx.Reply(fmt.Sprintf("%s **PURGA**: %d mensajes eliminados.", moderation.EmojiNuclear, len(ids)))
}
