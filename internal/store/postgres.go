package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// PostgresStore persists the graph blob in a single-row Postgres table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to dsn via the pgx stdlib driver.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS graph_blob (
			id INTEGER PRIMARY KEY,
			data BYTEA NOT NULL
		)
	`)
	return err
}

func (s *PostgresStore) Load(ctx context.Context) ([]byte, error) {
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

func (s *PostgresStore) Save(ctx context.Context, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO graph_blob (id, data) VALUES (0, $1)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`, blob)
	if err != nil {
		return fmt.Errorf("upsert graph blob: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }
