// Package commandtest runs commands through a real dispatcher over an
// in-memory store and a recording platform.
package commandtest

import (
	"context"
	"testing"
	"time"

	"github.com/PancyStudios/NucleoBotGo/pkg/database"
	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/discord/discordtest"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// GuildID is the guild every harness starts with
const GuildID = "g1"

var (
	// Owner owns GuildID
	Owner = &discordgo.User{ID: "owner-1", Username: "root", Discriminator: "0"}
	// Moderator is a regular staff member
	Moderator = &discordgo.User{ID: "mod-1", Username: "moderador", Discriminator: "0"}
)

// Harness wires commands to a dispatcher for tests
type Harness struct {
	t          *testing.T
	Platform   *discordtest.Platform
	Store      *database.MemoryStore
	Services   *moderation.Services
	Dispatcher *discord.Dispatcher
}

// New builds a harness with the commands returned by build
func New(t *testing.T, build func(*moderation.Services) []*discord.Command) *Harness {
	t.Helper()

	store := database.NewMemoryStore(database.WithUniqueKey(models.TableBlockedWords, "word", models.ColGuildID))
	svc := moderation.NewServices(store, time.Minute)

	platform := discordtest.NewPlatform()
	platform.AddGuild(&discordgo.Guild{
		ID:                GuildID,
		Name:              "Nucleo",
		OwnerID:           Owner.ID,
		VerificationLevel: discordgo.VerificationLevelLow,
	})
	platform.AddChannel(&discordgo.Channel{ID: "channel-1", GuildID: GuildID, Name: "general"})

	commands := discord.NewCommandCollection()
	for _, cmd := range build(svc) {
		commands.Set(cmd.Name, cmd)
	}

	return &Harness{
		t:          t,
		Platform:   platform,
		Store:      store,
		Services:   svc,
		Dispatcher: discord.NewDispatcher(commands, platform),
	}
}

// Run dispatches the interaction and waits for pending audit appends
func (h *Harness) Run(i *discordgo.InteractionCreate) discord.Outcome {
	outcome := h.Dispatcher.Dispatch(context.Background(), nil, i)
	h.Services.Audit.Flush()
	return outcome
}

// Reply returns the content of the last answer
func (h *Harness) Reply() discordtest.Response {
	h.t.Helper()
	resp, ok := h.Platform.LastResponse()
	if !ok {
		h.t.Fatal("no response was sent")
	}
	return resp
}

// Audit returns the audit entries, newest first
func (h *Harness) Audit() []models.AuditLogEntry {
	h.t.Helper()
	entries, err := h.Services.Audit.Recent(context.Background(), 100)
	if err != nil {
		h.t.Fatalf("reading audit log: %v", err)
	}
	return entries
}
