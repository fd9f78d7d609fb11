package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"doc2db/internal/config"
)

// ProjectDB is one project's isolated target database plus the exclusive lock
// that serializes schema applies against it. DDL statements are not
// commutative, so the lock is coarse: one apply at a time per project.
type ProjectDB struct {
	db     *sql.DB
	driver string
	mu     sync.Mutex
}

func (p *ProjectDB) DB() *sql.DB    { return p.db }
func (p *ProjectDB) Driver() string { return p.driver }
func (p *ProjectDB) Lock()          { p.mu.Lock() }
func (p *ProjectDB) Unlock()        { p.mu.Unlock() }

// Registry owns all per-project database handles, keyed by project ID and
// created lazily on first use. In the default sqlite3 mode each project gets
// its own file under the data directory; in pgx mode each project gets its
// own database provisioned through the admin DSN.
type Registry struct {
	cfg     *config.Config
	mu      sync.Mutex
	handles map[uuid.UUID]*ProjectDB
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		cfg:     cfg,
		handles: make(map[uuid.UUID]*ProjectDB),
	}
}

// Get returns the project's database handle, creating the database on first
// use.
func (r *Registry) Get(ctx context.Context, projectID uuid.UUID) (*ProjectDB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pdb, ok := r.handles[projectID]; ok {
		return pdb, nil
	}

	var (
		db  *sql.DB
		err error
	)
	switch r.cfg.ProjectDBDriver {
	case "pgx":
		db, err = r.openPostgres(ctx, projectID)
	default:
		db, err = r.openSQLite(projectID)
	}
	if err != nil {
		return nil, err
	}

	pdb := &ProjectDB{db: db, driver: r.cfg.ProjectDBDriver}
	if pdb.driver == "" {
		pdb.driver = "sqlite3"
	}
	r.handles[projectID] = pdb
	return pdb, nil
}

// Exists reports whether the project's database has been created, without
// creating it. Preview uses this so that looking at an empty project does not
// materialize a database file.
func (r *Registry) Exists(ctx context.Context, projectID uuid.UUID) (bool, error) {
	r.mu.Lock()
	if _, ok := r.handles[projectID]; ok {
		r.mu.Unlock()
		return true, nil
	}
	r.mu.Unlock()

	if r.cfg.ProjectDBDriver == "pgx" {
		admin, err := sql.Open("pgx", r.cfg.ProjectDBAdminDSN)
		if err != nil {
			return false, fmt.Errorf("failed to open admin connection: %w", err)
		}
		defer admin.Close()
		var exists bool
		err = admin.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)",
			projectDatabaseName(projectID)).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("failed to check project database: %w", err)
		}
		return exists, nil
	}

	_, err := os.Stat(r.sqlitePath(projectID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Close closes every open project handle.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, pdb := range r.handles {
		pdb.db.Close()
		delete(r.handles, id)
	}
}

func (r *Registry) sqlitePath(projectID uuid.UUID) string {
	return filepath.Join(r.cfg.DataDir, fmt.Sprintf("project_%s.db", projectID))
}

func (r *Registry) openSQLite(projectID uuid.UUID) (*sql.DB, error) {
	if err := os.MkdirAll(r.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := r.sqlitePath(projectID)
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open project database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// openPostgres provisions the per-project database if missing, then connects
// to it. CREATE DATABASE cannot run inside a transaction, so it goes through
// a plain admin connection.
func (r *Registry) openPostgres(ctx context.Context, projectID uuid.UUID) (*sql.DB, error) {
	if r.cfg.ProjectDBAdminDSN == "" {
		return nil, fmt.Errorf("PROJECT_DB_ADMIN_DSN is required for the pgx project driver")
	}
	dbName := projectDatabaseName(projectID)

	admin, err := sql.Open("pgx", r.cfg.ProjectDBAdminDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open admin connection: %w", err)
	}
	defer admin.Close()

	var exists bool
	err = admin.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check project database: %w", err)
	}
	if !exists {
		log.Printf("Creating project database %q", dbName)
		quoted := pgx.Identifier{dbName}.Sanitize()
		if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+quoted); err != nil {
			return nil, fmt.Errorf("failed to create project database: %w", err)
		}
	}

	dsn, err := replaceDatabaseName(r.cfg.ProjectDBAdminDSN, dbName)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open project database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping project database: %w", err)
	}
	return db, nil
}

// projectDatabaseName derives a database identifier from the project ID.
// Hyphens are dropped so the name needs no quoting in DSNs.
func projectDatabaseName(projectID uuid.UUID) string {
	return "project_" + strings.ReplaceAll(projectID.String(), "-", "")
}

func replaceDatabaseName(adminDSN, dbName string) (string, error) {
	u, err := url.Parse(adminDSN)
	if err != nil {
		return "", fmt.Errorf("failed to parse admin DSN: %w", err)
	}
	u.Path = "/" + dbName
	return u.String(), nil
}
