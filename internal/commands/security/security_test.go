package security

import (
	"fmt"
	"testing"

	"github.com/PancyStudios/NucleoBotGo/internal/commands/commandtest"
	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/discord/discordtest"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHarness(t *testing.T) *commandtest.Harness {
	return commandtest.New(t, Commands)
}

func TestIsolation_OwnerToggles(t *testing.T) {
	h := newHarness(t)

	outcome := h.Run(discordtest.Command("system-isolation", commandtest.GuildID, commandtest.Owner, 0).Build())
	assert.Equal(t, discord.OutcomeReplied, outcome)
	assert.Equal(t, discordgo.VerificationLevelVeryHigh, h.Platform.Verification[commandtest.GuildID])
	reply := h.Reply()
	assert.False(t, reply.Ephemeral)
	assert.Contains(t, reply.Content, "**AISLAMIENTO**: ACTIVADO (Nivel 4)")

	h.Run(discordtest.Command("system-isolation", commandtest.GuildID, commandtest.Owner, 0).Build())
	assert.Equal(t, discordgo.VerificationLevelLow, h.Platform.Verification[commandtest.GuildID])
	assert.Contains(t, h.Reply().Content, "**AISLAMIENTO**: DESACTIVADO")

	audit := h.Audit()
	require.Len(t, audit, 2)
	for _, entry := range audit {
		assert.Equal(t, models.AuditEventIsolation, entry.Event)
		assert.Equal(t, commandtest.GuildID, entry.GuildID)
	}
}

func TestIsolation_AdministratorIsNotOwner(t *testing.T) {
	h := newHarness(t)

	outcome := h.Run(discordtest.Command("system-isolation", commandtest.GuildID, commandtest.Moderator, discordgo.PermissionAdministrator).Build())

	assert.Equal(t, discord.OutcomeDenied, outcome)
	reply := h.Reply()
	assert.True(t, reply.Ephemeral)
	assert.Equal(t, "❌ Acceso denegado: Se requiere privilegios ROOT.", reply.Content)
	assert.Empty(t, h.Platform.Verification)
	assert.Empty(t, h.Audit())
}

func TestPermissionsScan(t *testing.T) {
	h := newHarness(t)
	h.Platform.Roles[commandtest.GuildID] = []*discordgo.Role{
		{ID: commandtest.GuildID, Name: "@everyone", Permissions: discordgo.PermissionSendMessages},
		{ID: "r-admin", Name: "Admin", Permissions: discordgo.PermissionAdministrator},
		{ID: "r-mod", Name: "Mod", Permissions: discordgo.PermissionManageMessages},
	}

	members := []*discordgo.Member{
		{User: commandtest.Owner},
		{User: &discordgo.User{ID: "bot-1", Username: "helper", Discriminator: "0", Bot: true}, Roles: []string{"r-admin"}},
		{User: &discordgo.User{ID: "mod-2", Username: "staff", Discriminator: "0"}, Roles: []string{"r-mod"}},
	}
	for i := 0; i < 22; i++ {
		members = append(members, &discordgo.Member{
			User:  &discordgo.User{ID: fmt.Sprintf("a%d", i), Username: fmt.Sprintf("admin%d", i), Discriminator: "0"},
			Roles: []string{"r-admin"},
		})
	}
	h.Platform.Members[commandtest.GuildID] = members

	outcome := h.Run(discordtest.Command("permissions-scan", commandtest.GuildID, commandtest.Moderator, discordgo.PermissionAdministrator).Build())

	assert.Equal(t, discord.OutcomeReplied, outcome)
	reply := h.Reply()
	assert.True(t, reply.Ephemeral)
	assert.Contains(t, reply.Content, "Se detectaron **23** usuarios con acceso TOTAL.")
	assert.Contains(t, reply.Content, "root (<@owner-1>)")
	assert.NotContains(t, reply.Content, "helper", "bots are skipped")
	assert.NotContains(t, reply.Content, "staff")
	assert.Contains(t, reply.Content, "… y 3 más.")
}

func TestPermissionsScan_RequiresAdministrator(t *testing.T) {
	h := newHarness(t)

	outcome := h.Run(discordtest.Command("permissions-scan", commandtest.GuildID, commandtest.Moderator, discordgo.PermissionManageGuild).Build())

	assert.Equal(t, discord.OutcomeDenied, outcome)
	assert.Equal(t, "❌ No tienes permisos.", h.Reply().Content)
}
