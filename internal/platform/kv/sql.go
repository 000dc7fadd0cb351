package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zyn-615/ACM-Transit-Template/internal/platform/database"
)

type dialect struct {
	name   string
	get    string
	upsert string
	delete string
}

var (
	postgresDialect = dialect{
		name:   BackendPostgres,
		get:    `SELECT item_value FROM kv_store WHERE item_key = $1`,
		upsert: `INSERT INTO kv_store (item_key, item_value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP) ON CONFLICT (item_key) DO UPDATE SET item_value = EXCLUDED.item_value, updated_at = CURRENT_TIMESTAMP`,
		delete: `DELETE FROM kv_store WHERE item_key = $1`,
	}
	sqliteDialect = dialect{
		name:   BackendSQLite,
		get:    `SELECT item_value FROM kv_store WHERE item_key = ?`,
		upsert: `INSERT INTO kv_store (item_key, item_value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) ON CONFLICT (item_key) DO UPDATE SET item_value = excluded.item_value, updated_at = CURRENT_TIMESTAMP`,
		delete: `DELETE FROM kv_store WHERE item_key = ?`,
	}
)

// SQLStore keeps collections in the kv_store table of a SQL database.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// NewPostgresStore connects through pgx and runs the table migration.
func NewPostgresStore(ctx context.Context, connStr string) (*SQLStore, error) {
	db, err := database.OpenPostgres(ctx, connStr)
	if err != nil {
		return nil, err
	}
	return newSQLStore(ctx, db, postgresDialect)
}

// NewSQLiteStore opens the file with modernc.org/sqlite and runs the migration.
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		return nil, errors.New("kv.NewSQLiteStore: path is required")
	}
	db, err := database.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return newSQLStore(ctx, db, sqliteDialect)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv.SQLStore(%s).Get %s: %w", s.dialect.name, key, err)
	}
	return []byte(value), nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, string(value)); err != nil {
		return fmt.Errorf("kv.SQLStore(%s).Set %s: %w", s.dialect.name, key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.delete, key); err != nil {
		return fmt.Errorf("kv.SQLStore(%s).Delete %s: %w", s.dialect.name, key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	database.Close(s.db)
	return nil
}
