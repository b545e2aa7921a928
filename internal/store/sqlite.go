package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists the graph blob in a single-row SQLite table.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", dir, err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}
	db.Exec("PRAGMA journal_mode = WAL")

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS graph_blob (
			id INTEGER PRIMARY KEY CHECK (id = 0),
			data BLOB NOT NULL
		)
	`)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := s.db.GetContext(ctx, &blob, `SELECT data FROM graph_blob WHERE id = 0`)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select graph blob: %w", err)
	}
	return blob, nil
}

func (s *SQLiteStore) Save(ctx context.Context, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO graph_blob (id, data) VALUES (0, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, blob)
	if err != nil {
		return fmt.Errorf("upsert graph blob: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
