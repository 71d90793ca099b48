package security

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// scanListLimit caps how many administrators are listed by name
const scanListLimit = 20

// createPermissionsScanCommand creates the /permissions-scan command
func createPermissionsScanCommand() *discord.Command {
	return discord.NewCommand(
		"permissions-scan",
		"🛡️ Escaneo de Admins",
		"security",
		permissionsScanHandler,
	).WithCapability(discord.CapabilityAdministrator).AsDeferred().AsPrivate()
}

// permissionsScanHandler lists the human members holding Administrator
func permissionsScanHandler(ctx *discord.CommandContext) error {
	guild, err := ctx.Guild()
	if err != nil {
		return err
	}
	roles, err := ctx.Platform.GuildRoles(guild.ID)
	if err != nil {
		return err
	}
	members, err := ctx.Platform.GuildMembers(guild.ID)
	if err != nil {
		return err
	}

	admins := administrators(guild, roles, members)

	var b strings.Builder
	fmt.Fprintf(&b, "%s **AUDITORÍA**: Se detectaron **%d** usuarios con acceso TOTAL.", moderation.EmojiAlertBlue, len(admins))
	for i, m := range admins {
		if i == scanListLimit {
			fmt.Fprintf(&b, "\n… y %d más.", len(admins)-scanListLimit)
			break
		}
		fmt.Fprintf(&b, "\n- %s (<@%s>)", m.User.String(), m.User.ID)
	}
	return ctx.Reply(b.String())
}

// administrators returns the non-bot members that own the guild or hold
// Administrator through @everyone or any of their roles
func administrators(guild *discordgo.Guild, roles []*discordgo.Role, members []*discordgo.Member) []*discordgo.Member {
	rolePerms := make(map[string]int64, len(roles))
	for _, r := range roles {
		rolePerms[r.ID] = r.Permissions
	}
	everyone := rolePerms[guild.ID]

	var out []*discordgo.Member
	for _, m := range members {
		if m.User == nil || m.User.Bot {
			continue
		}
		perms := everyone
		for _, id := range m.Roles {
			perms |= rolePerms[id]
		}
		if m.User.ID == guild.OwnerID || perms&discordgo.PermissionAdministrator != 0 {
			out = append(out, m)
		}
	}
	return out
}
