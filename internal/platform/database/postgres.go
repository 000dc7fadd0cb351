package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

//go:embed migrations/001_kv_store.sql
var kvStoreSQL string

// ConnStr builds a libpq-style connection string.
func ConnStr(host, port, user, password, name, sslMode string) string {
	return "host=" + host +
		" port=" + port +
		" user=" + user +
		" password=" + password +
		" dbname=" + name +
		" sslmode=" + sslMode
}

// OpenPostgres opens a pooled connection and verifies it.
func OpenPostgres(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("database.OpenPostgres: opening database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database.OpenPostgres: connecting to database: %w", err)
	}

	log.Info().Msg("Successfully connected to PostgreSQL database")
	return db, nil
}

// Migrate creates the key-value table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, kvStoreSQL); err != nil {
		return fmt.Errorf("database.Migrate: %w", err)
	}
	return nil
}

// Close closes db if it is non-nil.
func Close(db *sql.DB) {
	if db != nil {
		db.Close()
		log.Info().Msg("Database connection closed")
	}
}
