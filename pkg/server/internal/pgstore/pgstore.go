// Package pgstore is a Postgres room store. Writes lock the room row so
// several server instances can share one database.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vctt94/holdem/pkg/poker"
	"github.com/vctt94/holdem/pkg/server/internal/db"
)

//go:embed schema.sql
var schema embed.FS

// Store keeps rooms in Postgres.
type Store struct{ *pgxpool.Pool }

// Open connects to dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Store{p}
	if err := s.Migrate(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := s.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.Pool.Close()
	return nil
}

// LoadRoom reads a room and its seats.
func (s *Store) LoadRoom(ctx context.Context, roomID string) (*poker.Table, error) {
	var room []byte
	err := s.QueryRow(ctx, `SELECT state FROM rooms WHERE id = $1`, roomID).Scan(&room)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", db.ErrRoomNotFound, roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}

	rows, err := s.Query(ctx, `SELECT state FROM seats WHERE room_id = $1 ORDER BY seat_index`, roomID)
	if err != nil {
		return nil, fmt.Errorf("load seats of room %s: %w", roomID, err)
	}
	seats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]byte, error) {
		var b []byte
		err := row.Scan(&b)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("load seats of room %s: %w", roomID, err)
	}

	return db.DecodeRoom(room, seats)
}

// SaveRoom writes t inside a transaction holding the room row lock. t.Version
// must be exactly one above the stored version.
func (s *Store) SaveRoom(ctx context.Context, t *poker.Table, tr *poker.Transition) error {
	room, err := db.EncodeRoom(t)
	if err != nil {
		return err
	}

	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var stored int64
	err = tx.QueryRow(ctx, `SELECT version FROM rooms WHERE id = $1 FOR UPDATE`, t.ID).Scan(&stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if t.Version != 1 {
			return fmt.Errorf("%w: room %s does not exist", db.ErrVersionConflict, t.ID)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO rooms (id, version, status, hand_number, state)
			VALUES ($1, $2, $3, $4, $5)
		`, t.ID, t.Version, string(t.Status), t.HandNumber, room)
		if err != nil {
			return fmt.Errorf("insert room %s: %w", t.ID, err)
		}
	case err != nil:
		return fmt.Errorf("lock room %s: %w", t.ID, err)
	case stored != t.Version-1:
		return fmt.Errorf("%w: room %s is at version %d, write expects %d",
			db.ErrVersionConflict, t.ID, stored, t.Version-1)
	default:
		_, err = tx.Exec(ctx, `
			UPDATE rooms
			   SET version = $2, status = $3, hand_number = $4, state = $5, updated_at = now()
			 WHERE id = $1
		`, t.ID, t.Version, string(t.Status), t.HandNumber, room)
		if err != nil {
			return fmt.Errorf("update room %s: %w", t.ID, err)
		}
	}

	batch := &pgx.Batch{}
	for _, seat := range db.ChangedSeats(t, tr) {
		state, err := db.EncodeSeat(seat)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO seats (room_id, user_id, seat_index, stack, state)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (room_id, user_id) DO UPDATE
			   SET seat_index = EXCLUDED.seat_index,
			       stack = EXCLUDED.stack,
			       state = EXCLUDED.state,
			       updated_at = now()
		`, t.ID, seat.UserID, seat.Index, seat.Stack, state)
	}
	batch.Queue(`DELETE FROM seats WHERE room_id = $1 AND NOT (user_id = ANY($2))`, t.ID, db.SeatUserIDs(t))
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write seats of room %s: %w", t.ID, err)
	}

	return tx.Commit(ctx)
}

// RoomIDs lists every stored room.
func (s *Store) RoomIDs(ctx context.Context) ([]string, error) {
	rows, err := s.Query(ctx, `SELECT id FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// DeleteRoom removes a room and its seats.
func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := s.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	return err
}
