package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/vctt94/holdem/pkg/poker"
	"github.com/vctt94/holdem/pkg/validator"
)

// ErrManagerClosed is returned by operations submitted after Close.
var ErrManagerClosed = errors.New("manager closed")

const (
	defaultMailboxSize = 64
	defaultSaveTimeout = 10 * time.Second
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Store     RoomStore
	Publisher Publisher // optional
	Engine    *poker.Engine
	Validator *validator.Validator
	Log       slog.Logger

	// TurnTimeout folds a seat that holds the turn this long. Zero disables
	// the timer.
	TurnTimeout    time.Duration
	EventQueueSize int
	EventWorkers   int
	MailboxSize    int
}

// ActionRequest is a player action attributed to an authenticated user.
type ActionRequest struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
	Action string `json:"action"`
	Amount *int64 `json:"amount,omitempty"`
}

// Manager serves rooms. Each loaded room is owned by one goroutine that
// applies every change to it in turn, persists it, and then publishes the
// resulting event. Rooms never wait on each other.
type Manager struct {
	log         slog.Logger
	store       RoomStore
	engine      *poker.Engine
	validator   *validator.Validator
	events      *EventProcessor
	turnTimeout time.Duration
	saveTimeout time.Duration
	mailboxSize int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	rooms  map[string]*room
	closed bool
}

// NewManager creates a manager and starts its event workers.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("room store is required")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	if cfg.Engine == nil {
		cfg.Engine = poker.NewEngine(cfg.Log, nil)
	}
	if cfg.Validator == nil {
		cfg.Validator = validator.New(nil, cfg.Log)
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = defaultMailboxSize
	}
	if cfg.EventQueueSize <= 0 {
		cfg.EventQueueSize = 1000
	}
	if cfg.EventWorkers <= 0 {
		cfg.EventWorkers = 3
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		log:         cfg.Log,
		store:       cfg.Store,
		engine:      cfg.Engine,
		validator:   cfg.Validator,
		events:      NewEventProcessor(cfg.Log, cfg.Publisher, cfg.EventQueueSize, cfg.EventWorkers),
		turnTimeout: cfg.TurnTimeout,
		saveTimeout: defaultSaveTimeout,
		mailboxSize: cfg.MailboxSize,
		ctx:         ctx,
		cancel:      cancel,
		rooms:       make(map[string]*room),
	}
	m.events.Start()
	return m, nil
}

// LoadRooms starts an actor for every persisted room and returns how many
// were loaded. Rooms that fail to load are logged and skipped.
func (m *Manager) LoadRooms(ctx context.Context) (int, error) {
	ids, err := m.store.RoomIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list rooms: %w", err)
	}
	loaded := 0
	for _, id := range ids {
		if _, err := m.room(ctx, id); err != nil {
			m.log.Errorf("Failed to load room %s: %v", id, err)
			continue
		}
		loaded++
	}
	m.log.Infof("Loaded %d of %d persisted rooms", loaded, len(ids))
	return loaded, nil
}

// Close stops every room actor and flushes pending events.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.cancel()
	m.mu.Unlock()

	m.wg.Wait()
	m.events.Stop()
}

// room returns the actor for roomID, loading the room from the store the
// first time it is used. The store is read without holding m.mu so a slow
// load never stalls other rooms.
func (m *Manager) room(ctx context.Context, roomID string) (*room, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if r, ok := m.rooms[roomID]; ok {
		m.mu.Unlock()
		return r, nil
	}
	m.mu.Unlock()

	t, err := m.store.LoadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	if r, ok := m.rooms[roomID]; ok {
		// Another caller loaded it first.
		return r, nil
	}
	return m.spawn(t), nil
}

// spawn starts the actor owning t. m.mu must be held.
func (m *Manager) spawn(t *poker.Table) *room {
	r := newRoom(m, t)
	m.rooms[t.ID] = r
	m.wg.Add(1)
	go r.run(m.ctx)
	return r
}

// CreateRoom persists a new empty room and starts serving it. An empty
// cfg.ID gets a random one.
func (m *Manager) CreateRoom(ctx context.Context, cfg poker.TableConfig) (*poker.Table, error) {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	t, err := poker.NewTable(cfg)
	if err != nil {
		return nil, err
	}
	t.Version = 1

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if _, ok := m.rooms[cfg.ID]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("room %s already exists: %w", cfg.ID, ErrVersionConflict)
	}
	m.mu.Unlock()

	// The store rejects a second version 1 of the same room, so concurrent
	// creates of one ID cannot both succeed.
	if err := m.store.SaveRoom(ctx, t, nil); err != nil {
		return nil, fmt.Errorf("failed to create room %s: %w", cfg.ID, err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if _, ok := m.rooms[cfg.ID]; !ok {
		m.spawn(t.Clone())
	}
	m.mu.Unlock()

	m.events.PublishEvent(collectEvent(EventRoomCreated, "", "", &poker.Transition{Table: t}))
	m.log.Infof("Created room %s (%d seats, blinds %d/%d)", t.ID, t.MaxSeats, t.SmallBlind, t.BigBlind)

	return t.Clone(), nil
}

// Rooms lists the rooms currently served.
func (m *Manager) Rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Room returns a snapshot of a room's current state.
func (m *Manager) Room(ctx context.Context, roomID string) (*poker.Table, error) {
	r, err := m.room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	res := r.do(ctx, nil)
	return res.table, res.err
}

// Join seats userID with stack chips. A negative seat picks the lowest free
// one.
func (m *Manager) Join(ctx context.Context, roomID, userID string, seat int, stack int64) (*poker.Transition, error) {
	r, err := m.room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	res := r.do(ctx, &mutation{
		event:  EventPlayerJoined,
		userID: userID,
		fn: func(t *poker.Table) (*poker.Transition, error) {
			nt := t.Clone()
			if _, err := nt.AddSeat(userID, seat, stack); err != nil {
				return nil, err
			}
			return poker.Diff(t, nt), nil
		},
	})
	return res.tr, res.err
}

// Leave removes userID from the room. Players cannot leave mid-hand.
func (m *Manager) Leave(ctx context.Context, roomID, userID string) (*poker.Transition, error) {
	r, err := m.room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	res := r.do(ctx, &mutation{
		event:  EventPlayerLeft,
		userID: userID,
		fn: func(t *poker.Table) (*poker.Transition, error) {
			nt := t.Clone()
			if _, err := nt.RemoveSeat(userID); err != nil {
				return nil, err
			}
			return poker.Diff(t, nt), nil
		},
	})
	return res.tr, res.err
}

// StartHand deals the next hand.
func (m *Manager) StartHand(ctx context.Context, roomID string) (*poker.Transition, error) {
	r, err := m.room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	res := r.do(ctx, &mutation{
		event: EventHandStarted,
		fn:    m.engine.Start,
	})
	return res.tr, res.err
}

// Submit validates and applies a player action. The rate limit is charged
// before the room is even looked up. A rejected action leaves the room
// untouched and is reported synchronously; it never waits for other players.
//
// Once the room has accepted the request it is applied even if ctx ends
// while the caller waits for the result.
func (m *Manager) Submit(ctx context.Context, req ActionRequest) (*poker.Transition, error) {
	if err := m.validator.Throttle(req.UserID); err != nil {
		return nil, err
	}
	r, err := m.room(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	vreq := validator.Request{RoomID: req.RoomID, Action: req.Action, Amount: req.Amount}
	mut := &mutation{event: EventActionApplied, userID: req.UserID}
	mut.fn = func(t *poker.Table) (*poker.Transition, error) {
		a, err := m.validator.Check(t, req.UserID, vreq)
		if err != nil {
			return nil, err
		}
		mut.action = a.Type()
		return m.engine.ApplyAction(t, req.UserID, a)
	}
	res := r.do(ctx, mut)
	return res.tr, res.err
}
