package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajaravivarma-r/darkwire.io/internal/domain"
)

// PostgresStore is a kv-shaped alternative backend for deployments that
// already run Postgres and don't want Redis for one table.
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS rooms (
//	    id         text PRIMARY KEY,
//	    record     jsonb NOT NULL,
//	    updated_at timestamptz NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	var record []byte
	query := `SELECT record FROM rooms WHERE id=$1`
	err := s.db.QueryRow(ctx, query, roomID).Scan(&record)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("postgres get %q: %w", roomID, err)
	}
	return decodeRecord(record)
}

func (s *PostgresStore) Set(ctx context.Context, room *domain.Room) error {
	b, err := encodeRecord(room)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO rooms (id, record, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, updated_at = now()`
	if _, err := s.db.Exec(ctx, query, room.ID, b); err != nil {
		return fmt.Errorf("postgres set %q: %w", room.ID, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, roomID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, roomID); err != nil {
		return fmt.Errorf("postgres delete %q: %w", roomID, err)
	}
	return nil
}
