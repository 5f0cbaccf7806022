// Package config loads environment-driven configuration for the server.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port      string
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, console
	LogFile   string
	StaticDir string // optional directory of dealer/player pages
}

// DatabaseConfig holds SQL database settings
type DatabaseConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
}

// RedisConfig holds redis settings
type RedisConfig struct {
	Host string
	Port string
}

// StoreConfig selects and configures the room store backend
type StoreConfig struct {
	// Type is one of: memory, sqlite, postgres, redis
	Type     string
	Database DatabaseConfig
	Redis    RedisConfig
}

// GameConfig holds game rule settings
type GameConfig struct {
	PresetCSV     string
	InitialPoints int64
}

// Config is the full server configuration
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Game   GameConfig
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:      getEnv("SERVER_PORT", "8080"),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
			LogFile:   getEnv("LOG_FILE", "logs/wager_arena/server.log"),
			StaticDir: getEnv("STATIC_DIR", ""),
		},
		Store: StoreConfig{
			Type: getEnv("STORE_TYPE", "memory"),
			Database: DatabaseConfig{
				Host:       getEnv("DB_HOST", "localhost"),
				Port:       getEnv("DB_PORT", "5432"),
				User:       getEnv("DB_USER", "postgres"),
				Password:   getEnv("DB_PASSWORD", "postgres"),
				Name:       getEnv("DB_NAME", "wager_arena"),
				SQLitePath: getEnv("SQLITE_PATH", "data/rooms.db"),
			},
			Redis: RedisConfig{
				Host: getEnv("REDIS_HOST", "localhost"),
				Port: getEnv("REDIS_PORT", "6379"),
			},
		},
		Game: GameConfig{
			PresetCSV:     getEnv("PRESET_CSV", "BettingPresets.csv"),
			InitialPoints: int64(getEnvInt("INITIAL_POINTS", 1000)),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
