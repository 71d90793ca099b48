package commands

import (
	"testing"

	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/stretchr/testify/assert"
)

func TestAll(t *testing.T) {
	cmds := All(nil, nil)

	var names []string
	seen := map[string]bool{}
	for _, cmd := range cmds {
		assert.False(t, seen[cmd.Name], "duplicate command %s", cmd.Name)
		seen[cmd.Name] = true
		names = append(names, cmd.Name)
		assert.NotNil(t, cmd.Run, cmd.Name)
		assert.LessOrEqual(t, len(cmd.Description), 100, cmd.Name)
	}

	assert.ElementsMatch(t, []string{
		"info", "send-embed",
		"block-word", "warn", "remove-warn", "warns", "nuke-chat", "lock-channel",
		"system-isolation", "permissions-scan",
	}, names)
}

func TestAll_Gating(t *testing.T) {
	want := map[string]discord.Capability{
		"info":             discord.CapabilityNone,
		"send-embed":       discord.CapabilityManageMessages,
		"block-word":       discord.CapabilityManageMessages,
		"warn":             discord.CapabilityModerateMembers,
		"remove-warn":      discord.CapabilityModerateMembers,
		"warns":            discord.CapabilityModerateMembers,
		"nuke-chat":        discord.CapabilityManageMessages,
		"lock-channel":     discord.CapabilityManageChannels,
		"system-isolation": discord.CapabilityGuildOwner,
		"permissions-scan": discord.CapabilityAdministrator,
	}
	for _, cmd := range All(nil, nil) {
		assert.Equal(t, want[cmd.Name], cmd.Capability, cmd.Name)
	}
}
