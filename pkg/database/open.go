package database

import (
	"fmt"

	"github.com/PancyStudios/NucleoBotGo/pkg/config"
	"github.com/PancyStudios/NucleoBotGo/pkg/logger"
	"github.com/PancyStudios/NucleoBotGo/pkg/models"
)

// Open builds the store selected by STORE_DRIVER. A MongoDB store that fails
// its first connection is still returned: it keeps reconnecting in the
// background and reports ErrNotConnected meanwhile.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case "", "mongo", "mongodb":
		store, err := InitMongo(cfg.MongoDBURL, cfg.DBName)
		if err != nil {
			logger.Warn(fmt.Sprintf("MongoDB no disponible, se reintentará en segundo plano: %v", err), "DB")
		}
		return store, nil

	case "postgres", "postgresql":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN es obligatorio con STORE_DRIVER=%s", cfg.StoreDriver)
		}
		store, err := OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("migración de esquema: %w", err)
		}
		return store, nil

	case "sqlite":
		store, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := store.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("migración de esquema: %w", err)
		}
		return store, nil

	case "memory":
		logger.Warn("Usando almacenamiento en memoria; los datos se pierden al reiniciar.", "DB")
		return NewMemoryStore(
			WithUniqueKey(models.TableBlockedWords, "word", models.ColGuildID),
		), nil

	default:
		return nil, fmt.Errorf("STORE_DRIVER desconocido: %q", cfg.StoreDriver)
	}
}
