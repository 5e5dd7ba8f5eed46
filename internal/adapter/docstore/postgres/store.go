package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/etheron-labs/etheron-backend/internal/domain"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=etheron sslmode=disable"
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// store implements domain.DocumentStore on a single key->JSONB table
type store struct {
	db *DB
}

// NewStore creates a Postgres-backed document store, creating its table if
// it does not exist yet.
func NewStore(ctx context.Context, db *DB) (domain.DocumentStore, error) {
	createQuery := `
		CREATE TABLE IF NOT EXISTS documents (
			key        TEXT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := db.ExecContext(ctx, createQuery); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &store{db: db}, nil
}

// Load retrieves a stored document by key
func (s *store) Load(ctx context.Context, key string) (json.RawMessage, bool, error) {
	query := `SELECT doc FROM documents WHERE key = $1`

	var doc []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load document %q: %w", key, err)
	}

	return json.RawMessage(doc), true, nil
}

// Save overwrites the document stored under key
func (s *store) Save(ctx context.Context, key string, doc json.RawMessage) error {
	query := `
		INSERT INTO documents (key, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`

	if _, err := s.db.ExecContext(ctx, query, key, []byte(doc)); err != nil {
		return fmt.Errorf("failed to save document %q: %w", key, err)
	}

	return nil
}
