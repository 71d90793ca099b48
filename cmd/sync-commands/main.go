// Package main provides a utility to sync Discord slash commands.
// It removes stale commands from Discord and publishes the current set.
//
// Usage:
//
//	sync-commands [--guild <id>] list|clean|sync
//
// Without --guild the target is the dev guild outside production and the
// global scope in production.
package main

import (
	"fmt"
	"os"

	"github.com/PancyStudios/NucleoBotGo/internal/commands"
	"github.com/PancyStudios/NucleoBotGo/pkg/config"
	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
	"github.com/urfave/cli/v2"
)

// target is the authenticated REST session and the scope to act on
type target struct {
	session *discordgo.Session
	appID   string
	guildID string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	app := &cli.App{
		Name:  "sync-commands",
		Usage: "Sincroniza los comandos slash de NucleoBot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "guild",
				Usage: "servidor objetivo (vacío = global)",
				Value: discord.TargetGuild(cfg),
			},
		},
		Commands: []*cli.Command{
			{Name: "list", Usage: "Lista los comandos registrados", Action: withTarget(cfg, listCommands)},
			{Name: "clean", Usage: "Elimina todos los comandos", Action: withTarget(cfg, cleanCommands)},
			{Name: "sync", Usage: "Publica el conjunto actual (por defecto)", Action: withTarget(cfg, syncCommands)},
		},
		DefaultCommand: "sync",
	}

	if err := app.Run(os.Args); err != nil {
		logger.Critical(err.Error(), "SyncCommands")
		os.Exit(1)
	}
	logger.Success("Operación completada exitosamente", "SyncCommands")
}

// withTarget resolves the bot's application ID over REST before running fn
func withTarget(cfg *config.Config, fn func(target) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		session, err := discordgo.New("Bot " + cfg.BotToken)
		if err != nil {
			return fmt.Errorf("creando la sesión: %w", err)
		}

		me, err := session.User("@me")
		if err != nil {
			return fmt.Errorf("autenticando el bot: %w", err)
		}

		t := target{session: session, appID: me.ID, guildID: c.String("guild")}
		logger.System(fmt.Sprintf("Conectado como %s | ámbito: %s", me.String(), scopeLabel(t.guildID)), "SyncCommands")
		return fn(t)
	}
}

func scopeLabel(guildID string) string {
	if guildID == "" {
		return "global"
	}
	return "servidor " + guildID
}

// listCommands lists all commands registered with Discord
func listCommands(t target) error {
	cmds, err := t.session.ApplicationCommands(t.appID, t.guildID)
	if err != nil {
		return fmt.Errorf("obteniendo comandos: %w", err)
	}

	if len(cmds) == 0 {
		logger.Info("No hay comandos registrados", "SyncCommands")
		return nil
	}

	logger.Info(fmt.Sprintf("Comandos encontrados: %d", len(cmds)), "SyncCommands")
	for i, cmd := range cmds {
		logger.Info(fmt.Sprintf("  %d. /%s - %s (ID: %s)", i+1, cmd.Name, cmd.Description, cmd.ID), "SyncCommands")
	}
	return nil
}

// cleanCommands removes all commands from Discord
func cleanCommands(t target) error {
	logger.Info("🧹 Eliminando todos los comandos...", "SyncCommands")
	return discord.UnregisterAll(t.session, t.appID, t.guildID)
}

// syncCommands replaces the published set with the current definitions;
// the bulk overwrite drops stale commands in the same call
func syncCommands(t target) error {
	logger.Info("🔄 Sincronizando comandos...", "SyncCommands")

	defs := commands.All(nil, nil)
	payload := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, cmd := range defs {
		payload = append(payload, cmd.ToApplicationCommand())
	}

	created, err := t.session.ApplicationCommandBulkOverwrite(t.appID, t.guildID, payload)
	if err != nil {
		return fmt.Errorf("sincronizando comandos: %w", err)
	}

	logger.Success(fmt.Sprintf("✅ %d comandos sincronizados", len(created)), "SyncCommands")
	return nil
}
