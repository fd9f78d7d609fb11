package config

import (
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds all runtime settings, loaded from the environment (a .env file
// is picked up automatically when present).
type Config struct {
	Port      int
	DataDir   string // per-project database files live here
	UploadDir string

	// Metadata store. A postgres:// URL switches the store to PostgreSQL;
	// empty means an embedded SQLite file under DataDir.
	MetadataDatabaseURL string

	// Per-project databases. Driver is "sqlite3" (default, one file per
	// project) or "pgx" (one database per project, provisioned through
	// ProjectDBAdminDSN).
	ProjectDBDriver   string
	ProjectDBAdminDSN string

	AnthropicAPIKey string
	LLMModel        string

	MaxUploadMB     int
	PreviewRowLimit int
}

func Load() *Config {
	return &Config{
		Port:                envInt("PORT", 8080),
		DataDir:             envStr("DATA_DIR", "./data"),
		UploadDir:           envStr("UPLOAD_DIR", "./uploads"),
		MetadataDatabaseURL: envStr("METADATA_DATABASE_URL", ""),
		ProjectDBDriver:     envStr("PROJECT_DB_DRIVER", "sqlite3"),
		ProjectDBAdminDSN:   envStr("PROJECT_DB_ADMIN_DSN", ""),
		AnthropicAPIKey:     envStr("ANTHROPIC_API_KEY", ""),
		LLMModel:            envStr("LLM_MODEL", "claude-3-5-sonnet-latest"),
		MaxUploadMB:         envInt("MAX_UPLOAD_MB", 20),
		PreviewRowLimit:     envInt("PREVIEW_ROW_LIMIT", 50),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
