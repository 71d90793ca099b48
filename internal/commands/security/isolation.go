package security

import (
	"fmt"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

const (
	isolationLevel = discordgo.VerificationLevelVeryHigh
	releasedLevel  = discordgo.VerificationLevelLow
)

// createIsolationCommand creates the owner-only /system-isolation command
func createIsolationCommand(svc *moderation.Services) *discord.Command {
	return discord.NewCommand(
		"system-isolation",
		"🚨 Lockdown (Solo Dueño)",
		"security",
		func(ctx *discord.CommandContext) error {
			return isolationHandler(ctx, svc)
		},
	).WithCapability(discord.CapabilityGuildOwner).AsDeferred()
}

// isolationHandler toggles the guild between verification level 4 and 1
func isolationHandler(ctx *discord.CommandContext, svc *moderation.Services) error {
	guild, err := ctx.Guild()
	if err != nil {
		return err
	}

	active := guild.VerificationLevel != isolationLevel
	level := releasedLevel
	if active {
		level = isolationLevel
	}

	if err := ctx.Platform.SetVerificationLevel(guild.ID, level); err != nil {
		return err
	}

	emoji, state := moderation.EmojiAmongUs, "DESACTIVADO"
	if active {
		emoji, state = moderation.EmojiAlertRed, "ACTIVADO (Nivel 4)"
	}

	svc.Audit.Record(ctx.Context, models.AuditEventIsolation,
		"AISLAMIENTO "+state, ctx.User().String(), guild.ID)

	return ctx.Reply(fmt.Sprintf("%s **AISLAMIENTO**: %s", emoji, state))
}
