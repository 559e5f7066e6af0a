package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/decred/slog"

	"github.com/vctt94/holdem/pkg/poker"
	"github.com/vctt94/holdem/pkg/server/internal/db"
	"github.com/vctt94/holdem/pkg/server/internal/pgstore"
)

var (
	ErrRoomNotFound    = db.ErrRoomNotFound
	ErrVersionConflict = db.ErrVersionConflict
)

// RoomStore persists rooms. SaveRoom is given the new table, whose Version is
// one above the stored one, and the transition that produced it so stores
// can write only the changed seats.
type RoomStore interface {
	LoadRoom(ctx context.Context, roomID string) (*poker.Table, error)
	SaveRoom(ctx context.Context, t *poker.Table, tr *poker.Transition) error
	RoomIDs(ctx context.Context) ([]string, error)
	DeleteRoom(ctx context.Context, roomID string) error
	Close() error
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreConfig selects and configures a RoomStore.
type StoreConfig struct {
	Driver      string
	Path        string // sqlite database file
	PostgresDSN string
	Log         slog.Logger
}

// OpenStore creates the RoomStore named by cfg.Driver.
func OpenStore(ctx context.Context, cfg StoreConfig) (RoomStore, error) {
	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}
	switch cfg.Driver {
	case DriverMemory, "":
		log.Infof("Using in-memory room store")
		return NewMemoryStore(), nil

	case DriverSQLite:
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		d, err := db.NewDB(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Infof("Using sqlite room store at %s", cfg.Path)
		return d, nil

	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
		s, err := pgstore.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		log.Infof("Using postgres room store")
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// MemoryStore is a RoomStore kept in process memory. Tables are cloned on the
// way in and out.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*poker.Table
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*poker.Table)}
}

func (m *MemoryStore) LoadRoom(_ context.Context, roomID string) (*poker.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return t.Clone(), nil
}

func (m *MemoryStore) SaveRoom(_ context.Context, t *poker.Table, _ *poker.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored int64
	if cur, ok := m.rooms[t.ID]; ok {
		stored = cur.Version
	}
	if stored != t.Version-1 {
		return fmt.Errorf("%w: room %s is at version %d", ErrVersionConflict, t.ID, stored)
	}
	m.rooms[t.ID] = t.Clone()
	return nil
}

func (m *MemoryStore) RoomIDs(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) DeleteRoom(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
