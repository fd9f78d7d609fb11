package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"doc2db/internal/config"
)

// OpenMetadata opens the metadata store that tracks projects and extractions.
// The default is an embedded SQLite file under the data directory; a
// postgres:// URL in the configuration switches it to PostgreSQL through the
// pgx stdlib driver. All metadata SQL uses $N placeholders, which both
// engines accept, so the repositories are engine-agnostic.
func OpenMetadata(cfg *config.Config) (*sql.DB, error) {
	driver, dsn, err := metadataDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}
	if driver == "sqlite3" {
		// single writer; SQLite serializes writes anyway
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping metadata store: %w", err)
	}

	log.Printf("Metadata store ready (%s)", driver)
	return db, nil
}

func metadataDSN(cfg *config.Config) (driver, dsn string, err error) {
	url := cfg.MetadataDatabaseURL
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "pgx", url, nil
	}
	if url != "" {
		return "sqlite3", url, nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(cfg.DataDir, "doc2db.db")
	return "sqlite3", path + "?_foreign_keys=on&_busy_timeout=5000", nil
}
