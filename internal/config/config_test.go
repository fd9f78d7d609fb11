package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATA_DIR", "UPLOAD_DIR", "METADATA_DATABASE_URL",
		"PROJECT_DB_DRIVER", "PROJECT_DB_ADMIN_DSN",
		"ANTHROPIC_API_KEY", "LLM_MODEL", "MAX_UPLOAD_MB", "PREVIEW_ROW_LIMIT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "./uploads", cfg.UploadDir)
	assert.Equal(t, "sqlite3", cfg.ProjectDBDriver)
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.LLMModel)
	assert.Equal(t, 20, cfg.MaxUploadMB)
	assert.Equal(t, 50, cfg.PreviewRowLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PROJECT_DB_DRIVER", "pgx")
	t.Setenv("PREVIEW_ROW_LIMIT", "10")

	cfg := Load()
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "pgx", cfg.ProjectDBDriver)
	assert.Equal(t, 10, cfg.PreviewRowLimit)
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	assert.Equal(t, 8080, Load().Port)
}
