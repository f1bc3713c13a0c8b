package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var db *sql.DB

// MigrationStatus compares the schema version of a database with the newest
// embedded migration.
type MigrationStatus struct {
	CurrentVersion uint
	LatestVersion  uint
	Dirty          bool
	Pending        bool
}

// Open opens the database at path without running migrations. The parent
// directory is created when missing.
func Open(path string) (*sql.DB, error) {
	if db != nil {
		return db, nil
	}

	conn, err := OpenConn(path)
	if err != nil {
		return nil, err
	}
	db = conn
	return db, nil
}

// OpenConn opens a standalone connection, independent of the package-level one.
func OpenConn(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// sqlite serializes writers; one connection keeps the TUI's commands from
	// tripping over each other with SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	return conn, nil
}

// OpenAndMigrate opens the database and runs all pending migrations
func OpenAndMigrate(path string) (*sql.DB, error) {
	database, err := Open(path)
	if err != nil {
		return nil, err
	}

	if err := Migrate(database); err != nil {
		return nil, err
	}

	return database, nil
}

func Close() error {
	if db != nil {
		err := db.Close()
		db = nil
		return err
	}
	return nil
}

// GetMigrationStatus reads the schema version of conn. A database that was
// never migrated reports version 0.
func GetMigrationStatus(conn *sql.DB) (*MigrationStatus, error) {
	if conn == nil {
		return nil, fmt.Errorf("database not open")
	}

	m, err := getMigrator(conn)
	if err != nil {
		return nil, err
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	latest, err := latestVersion()
	if err != nil {
		return nil, err
	}

	return &MigrationStatus{
		CurrentVersion: current,
		LatestVersion:  latest,
		Dirty:          dirty,
		Pending:        current < latest,
	}, nil
}

// latestVersion walks the embedded migrations to the last one.
func latestVersion() (uint, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, err
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		// no migrations embedded
		return 0, nil
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v, nil
		}
		v = next
	}
}

// Migrate runs all pending migrations on conn
func Migrate(conn *sql.DB) error {
	if conn == nil {
		return fmt.Errorf("database not open")
	}

	m, err := getMigrator(conn)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func getMigrator(conn *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(conn, &sqlite3.Config{})
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", source, "sqlite3", driver)
}
