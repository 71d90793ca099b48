// Package mod - /block-word command
package mod

import (
	"errors"
	"fmt"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// createBlockWordCommand creates the /block-word command. Words are global
// unless the "servidor" option limits them to the current guild.
func createBlockWordCommand(svc *moderation.Services) *discord.Command {
	return discord.NewCommand(
		"block-word",
		"🚫 Bloquear palabra",
		"mod",
		func(ctx *discord.CommandContext) error {
			return blockWordHandler(ctx, svc)
		},
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "palabra",
			Description: "Palabra a banear",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "servidor",
			Description: "Bloquear solo en este servidor",
			Required:    false,
		},
	).WithCapability(discord.CapabilityManageMessages).AsDeferred().AsPrivate()
}

func blockWordHandler(ctx *discord.CommandContext, svc *moderation.Services) error {
	guildID := ""
	if ctx.GetBoolOption("servidor") {
		guildID = ctx.GuildID()
	}

	entry, err := svc.Filter.BlockWord(ctx.Context, ctx.GetStringOption("palabra"), guildID)
	switch {
	case errors.Is(err, moderation.ErrInvalidWord):
		return ctx.Reply("❌ Debes especificar una palabra.")
	case errors.Is(err, moderation.ErrWordAlreadyBlocked):
		return ctx.Reply(fmt.Sprintf("ℹ️ \"%s\" ya estaba bloqueada.", entry.Word))
	case err != nil:
		return err
	}

	scope := "global"
	if !entry.IsGlobal() {
		scope = "servidor"
	}
	svc.Audit.Record(ctx.Context, models.AuditEventInfo,
		fmt.Sprintf("BLOCK_WORD: \"%s\" (%s)", entry.Word, scope),
		ctx.User().String(), ctx.GuildID())

	reply := fmt.Sprintf("%s **[DB_UPDATE]**: \"%s\" bloqueada.", moderation.EmojiLock, entry.Word)
	if guildID != "" && entry.IsGlobal() {
		reply += "\n⚠️ La base de datos no admite palabras por servidor: se guardó como global."
	}
	return ctx.Reply(reply)
}
