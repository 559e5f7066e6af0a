package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vctt94/holdem/pkg/poker"
)

// DB is a SQLite backed room store.
type DB struct {
	*sql.DB
}

// NewDB opens the database at dbPath and creates missing tables.
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and avoids SQLITE_BUSY between
	// rooms.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary database tables
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			status TEXT NOT NULL,
			hand_number INTEGER NOT NULL DEFAULT 0,
			state TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create rooms table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS seats (
			room_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			seat_index INTEGER NOT NULL,
			stack INTEGER NOT NULL,
			state TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (room_id, user_id),
			FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create seats table: %w", err)
	}

	return nil
}

// LoadRoom reads a room and its seats.
func (db *DB) LoadRoom(ctx context.Context, roomID string) (*poker.Table, error) {
	var room string
	err := db.QueryRowContext(ctx, "SELECT state FROM rooms WHERE id = ?", roomID).Scan(&room)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", roomID, err)
	}

	rows, err := db.QueryContext(ctx, "SELECT state FROM seats WHERE room_id = ? ORDER BY seat_index", roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seats of room %s: %w", roomID, err)
	}
	defer rows.Close()

	var seats [][]byte
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, []byte(s))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return DecodeRoom([]byte(room), seats)
}

// SaveRoom writes t, whose Version must be exactly one above the stored
// version. Only the seats named by tr are rewritten; seats no longer at the
// table are removed.
func (db *DB) SaveRoom(ctx context.Context, t *poker.Table, tr *poker.Transition) error {
	room, err := EncodeRoom(t)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var res sql.Result
	if t.Version == 1 {
		res, err = tx.ExecContext(ctx, `
			INSERT INTO rooms (id, version, status, hand_number, state)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, t.ID, t.Version, string(t.Status), t.HandNumber, string(room))
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE rooms
			   SET version = ?, status = ?, hand_number = ?, state = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND version = ?
		`, t.Version, string(t.Status), t.HandNumber, string(room), t.ID, t.Version-1)
	}
	if err != nil {
		return fmt.Errorf("failed to write room %s: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: room %s at version %d", ErrVersionConflict, t.ID, t.Version-1)
	}

	for _, s := range ChangedSeats(t, tr) {
		state, err := EncodeSeat(s)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO seats (room_id, user_id, seat_index, stack, state)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(room_id, user_id) DO UPDATE
			   SET seat_index = excluded.seat_index,
			       stack = excluded.stack,
			       state = excluded.state,
			       updated_at = CURRENT_TIMESTAMP
		`, t.ID, s.UserID, s.Index, s.Stack, string(state))
		if err != nil {
			return fmt.Errorf("failed to write seat %s of room %s: %w", s.UserID, t.ID, err)
		}
	}

	if err := deleteStaleSeats(ctx, tx, t.ID, SeatUserIDs(t)); err != nil {
		return err
	}

	return tx.Commit()
}

func deleteStaleSeats(ctx context.Context, tx *sql.Tx, roomID string, keep []string) error {
	query := "DELETE FROM seats WHERE room_id = ?"
	args := []any{roomID}
	if len(keep) > 0 {
		query += " AND user_id NOT IN (?" + strings.Repeat(", ?", len(keep)-1) + ")"
		for _, id := range keep {
			args = append(args, id)
		}
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to prune seats of room %s: %w", roomID, err)
	}
	return nil
}

// RoomIDs lists every stored room.
func (db *DB) RoomIDs(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT id FROM rooms ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteRoom removes a room and its seats.
func (db *DB) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", roomID)
	return err
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
