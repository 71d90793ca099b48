// Package discord provides the command handler for loading and registering commands.
package discord

import (
	"strconv"

	"github.com/PancyStudios/NucleoBotGo/pkg/config"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// CommandHandler manages command registration with Discord
type CommandHandler struct {
	client        *ExtendedClient
	slashCommands []*discordgo.ApplicationCommand
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{
		client:        client,
		slashCommands: make([]*discordgo.ApplicationCommand, 0),
	}
}

// RegisterCommand adds a command to the registry and to the slash command list
func (ch *CommandHandler) RegisterCommand(cmd *Command) {
	ch.client.Commands.Set(cmd.Name, cmd)
	ch.slashCommands = append(ch.slashCommands, cmd.ToApplicationCommand())
	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
}

// ApplicationCommands returns the slash commands in registration order
func (ch *CommandHandler) ApplicationCommands() []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, len(ch.slashCommands))
	copy(out, ch.slashCommands)
	return out
}

// TargetGuild returns where commands are published: the dev guild outside
// production when one is configured, otherwise "" (global)
func TargetGuild(cfg *config.Config) string {
	if cfg == nil || cfg.IsProd() {
		return ""
	}
	return cfg.DevGuildID
}

// RegisterCommands publishes all slash commands with a single bulk overwrite
func (ch *CommandHandler) RegisterCommands() {
	guildID := TargetGuild(config.Get())
	scope := "globales"
	if guildID != "" {
		scope = "del servidor " + guildID
	}

	logger.Info("🔄 Registrando comandos "+scope+"...", "CommandHandler")

	appID := ch.client.Session.State.User.ID
	created, err := ch.client.Session.ApplicationCommandBulkOverwrite(appID, guildID, ch.slashCommands)
	if err != nil {
		logger.Error("Error registrando comandos: "+err.Error(), "CommandHandler")
		return
	}

	logger.Success("✅ "+strconv.Itoa(len(created))+" comandos "+scope+" registrados.", "CommandHandler")
}

// UnregisterCommands removes all registered commands in guildID ("" for global)
func (ch *CommandHandler) UnregisterCommands(guildID string) error {
	return UnregisterAll(ch.client.Session, ch.client.Session.State.User.ID, guildID)
}

// UnregisterAll deletes every application command of appID in guildID
func UnregisterAll(s *discordgo.Session, appID, guildID string) error {
	commands, err := s.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}

	for _, cmd := range commands {
		if err := s.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			logger.Error("Error eliminando comando "+cmd.Name+": "+err.Error(), "CommandHandler")
		}
	}

	logger.Success("Comandos eliminados: "+strconv.Itoa(len(commands)), "CommandHandler")
	return nil
}
