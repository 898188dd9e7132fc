package config

import (
	"os"
	"time"

	"lampview/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath       string
	DataDir      string
	TableListURL string
	ServerPort   string
	LogLevel     string
	SessionTTL   time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:       getEnv("DB_PATH", "tables.db"),
		DataDir:      getEnv("DATA_DIR", os.TempDir()),
		TableListURL: getEnv("TABLE_LIST_URL", ""),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		SessionTTL:   constants.SessionTTL,
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("data_dir", cfg.DataDir).
		Str("table_list_url", cfg.TableListURL).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("session_ttl", cfg.SessionTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
