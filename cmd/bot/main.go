// Package main is the entry point for the NucleoBot Go application.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/NucleoBotGo/internal/commands"
	"github.com/PancyStudios/NucleoBotGo/internal/events"
	"github.com/PancyStudios/NucleoBotGo/pkg/config"
	"github.com/PancyStudios/NucleoBotGo/pkg/database"
	"github.com/PancyStudios/NucleoBotGo/pkg/discord"
	"github.com/PancyStudios/NucleoBotGo/pkg/errors"
	"github.com/PancyStudios/NucleoBotGo/pkg/keepalive"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/moderation"
	"github.com/PancyStudios/NucleoBotGo/pkg/mqtt"
	"github.com/PancyStudios/NucleoBotGo/pkg/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System(fmt.Sprintf("Iniciando NucleoBot Go %s (%s)...", config.Version, config.BuildTime), "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// Initialize error handler; it exits right after the shutdown hook runs
	var discordClient *discord.ExtendedClient
	var services *moderation.Services
	errors.Init(cfg.ErrorWebhook, func() {
		stop()
		if discordClient != nil {
			_ = discordClient.Stop()
		}
		if services != nil {
			closeServices(services)
		}
	})

	// Initialize rule store
	store, err := database.Open(cfg)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error abriendo el almacenamiento: %v", err), "Main")
		os.Exit(1)
	}
	services = moderation.NewServices(store, cfg.FilterCacheTTL)
	defer closeServices(services)

	// Initialize MQTT audit mirror
	mqttClientID := "nucleobot"
	if !cfg.IsProd() {
		mqttClientID = "nucleobot_canary"
	}
	mqttClient := mqtt.Init(cfg.MQTTHost, cfg.MQTTPort, cfg.MQTTUser, cfg.MQTTPassword, mqttClientID)
	defer mqttClient.Destroy()
	services.Audit.SetPublisher(mqttClient)

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	if err := mqttClient.On("status", statusResponder(services, discordClient)); err != nil {
		logger.Warn("El dashboard no podrá consultar el estado por MQTT", "Main")
	}

	// Initialize web bridge
	webServer, err := web.Init(web.Options{
		WebhookURL:   cfg.LogsWebServerHook,
		AllowedHosts: cfg.AllowedHosts,
		Origins:      cfg.DashboardOrigins,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error configurando el bridge: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, web.Deps{
		Services: services,
		Bot:      discordClient,
		Guilds:   discordClient.Platform,
	})
	webServer.StartAsync(cfg.Port)

	// Register commands and events
	commands.RegisterAll(discordClient, services, webServer.Running)
	scanner := moderation.NewScanner(services.Filter, services.Audit, discordClient.Platform)
	events.RegisterAll(discordClient, scanner)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := discordClient.Stop(); err != nil {
			logger.Warn(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
		}
	}()

	// Keep-alive probe for hosted deployments
	if cfg.KeepaliveEnabled() {
		go keepalive.New(cfg.ExternalHostname, cfg.KeepaliveInterval).Run(ctx)
	}

	logger.Success("NucleoBot Go iniciado correctamente!", "Main")

	<-ctx.Done()

	logger.System("Apagando NucleoBot Go...", "Main")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn(fmt.Sprintf("Error cerrando el bridge: %v", err), "Main")
	}
}

// statusResponder answers nucleo/request/status for the dashboard
func statusResponder(services *moderation.Services, client *discord.ExtendedClient) mqtt.RequestHandler {
	return func(map[string]interface{}) (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		storeStatus, storeOnline := services.StoreStatus(ctx)
		return map[string]interface{}{
			"bot":         client.IsReady(),
			"guilds":      client.GuildCount(),
			"store":       storeStatus,
			"storeOnline": storeOnline,
			"cachedWords": services.Filter.Size(),
			"version":     config.Version,
		}, nil
	}
}

// closeServices flushes pending audit entries and closes the store
func closeServices(services *moderation.Services) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := services.Close(ctx); err != nil {
		logger.Warn(fmt.Sprintf("Error cerrando el almacenamiento: %v", err), "Main")
	}
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
