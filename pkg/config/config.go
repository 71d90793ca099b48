// Package config provides configuration management for the bot.
// It loads environment variables and makes them available throughout the application.
package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken   string
	DevGuildID string

	// Rule store
	StoreDriver string
	MongoDBURL  string
	DBName      string
	PostgresDSN string
	SQLitePath  string

	// MQTT
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	// Web Server
	Port             string
	DashboardOrigins []string
	AllowedHosts     string

	// Environment
	Environment string

	// Webhooks
	ErrorWebhook      string
	LogsWebhook       string
	LogsWebServerHook string

	// Moderation
	FilterCacheTTL time.Duration

	// Keep-alive
	ExternalHostname  string
	KeepaliveInterval time.Duration
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

// cfg holds the global configuration instance
var (
	cfg     *Config
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
}

// loadConfig performs the actual configuration loading
func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	cfg = &Config{
		// Discord
		BotToken:   getEnv("botToken", ""),
		DevGuildID: getEnv("devGuildId", ""),

		// Rule store
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
		MongoDBURL:  getEnv("mongodbUrl", "mongodb://localhost:27017"),
		DBName:      getEnv("dbName", "NucleoBot"),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "data/nucleo.db"),

		// MQTT
		MQTTHost:     getEnv("MQTT_Host", "localhost"),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),

		// Web Server
		Port:             getEnv("PORT", "3000"),
		DashboardOrigins: getList("DASHBOARD_ORIGINS"),
		AllowedHosts:     getEnv("ALLOWED_HOSTS", ""),

		// Environment
		Environment: getEnv("enviroment", "dev"),

		// Webhooks
		ErrorWebhook:      getEnv("errorWebhook", ""),
		LogsWebhook:       getEnv("logsWebhook", ""),
		LogsWebServerHook: getEnv("logsWebServerWebhook", ""),

		// Moderation
		FilterCacheTTL: getDuration("FILTER_CACHE_TTL", 60*time.Second),

		// Keep-alive
		ExternalHostname:  getEnv("RENDER_EXTERNAL_HOSTNAME", ""),
		KeepaliveInterval: getDuration("KEEPALIVE_INTERVAL", 280*time.Second),
	}
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, nil
}

// Get returns the current configuration
func Get() *Config {
	// Use sync.Once to ensure thread-safe initialization if Load wasn't called
	cfgOnce.Do(loadConfig)
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration variable; invalid or non-positive values use the default
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// getList splits a comma separated variable, dropping empty items
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// KeepaliveEnabled reports whether the keep-alive probe has a target
func (c *Config) KeepaliveEnabled() bool {
	return c.ExternalHostname != ""
}
