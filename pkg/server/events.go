package server

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/vctt94/holdem/pkg/poker"
)

// EventType identifies what happened to a room.
type EventType string

const (
	EventRoomCreated   EventType = "room_created"
	EventPlayerJoined  EventType = "player_joined"
	EventPlayerLeft    EventType = "player_left"
	EventHandStarted   EventType = "hand_started"
	EventActionApplied EventType = "action_applied"
	EventTurnTimeout   EventType = "turn_timeout"
)

// RoomEvent is the public notification that a room changed. Hidden
// information (hole cards before showdown, the remaining deck) is stripped.
type RoomEvent struct {
	ID           uuid.UUID         `json:"id"`
	Type         EventType         `json:"type"`
	RoomID       string            `json:"room_id"`
	UserID       string            `json:"user_id,omitempty"`
	Action       poker.ActionType  `json:"action,omitempty"`
	Version      int64             `json:"version"`
	HandNumber   int64             `json:"hand_number"`
	Status       poker.Status      `json:"status"`
	Phase        poker.Phase       `json:"current_phase"`
	Seats        []poker.SeatDelta `json:"seats,omitempty"`
	Room         poker.RoomDelta   `json:"room,omitempty"`
	HandFinished bool              `json:"hand_finished"`
	Winners      []poker.Winner    `json:"winners,omitempty"`
	ChipChanges  map[string]int64  `json:"chip_changes,omitempty"` // net result per user for a finished hand
	Timestamp    time.Time         `json:"timestamp"`
}

// Publisher disseminates room events to whoever is listening.
type Publisher interface {
	Publish(ctx context.Context, ev *RoomEvent) error
}

// EventProcessor delivers events to a Publisher from a pool of workers.
// Events of one room always go to the same worker so they are published in
// order.
type EventProcessor struct {
	log       slog.Logger
	publisher Publisher
	timeout   time.Duration
	queues    []chan *RoomEvent
	stopChan  chan struct{}
	wg        sync.WaitGroup
	started   bool
	mu        sync.Mutex
}

// NewEventProcessor creates a processor with workerCount workers, each with a
// queue of queueSize events.
func NewEventProcessor(log slog.Logger, publisher Publisher, queueSize, workerCount int) *EventProcessor {
	if log == nil {
		log = slog.Disabled
	}
	if workerCount < 1 {
		workerCount = 1
	}
	ep := &EventProcessor{
		log:       log,
		publisher: publisher,
		timeout:   5 * time.Second,
		queues:    make([]chan *RoomEvent, workerCount),
		stopChan:  make(chan struct{}),
	}
	for i := range ep.queues {
		ep.queues[i] = make(chan *RoomEvent, queueSize)
	}
	return ep
}

// Start begins processing events
func (ep *EventProcessor) Start() {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if ep.started {
		return
	}
	ep.started = true
	ep.stopChan = make(chan struct{})
	ep.log.Infof("Starting event processor with %d workers", len(ep.queues))

	for i := range ep.queues {
		ep.wg.Add(1)
		go ep.run(i)
	}
}

// Stop drains the queues and waits for the workers to exit.
func (ep *EventProcessor) Stop() {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if !ep.started {
		return
	}
	close(ep.stopChan)
	ep.wg.Wait()
	ep.started = false
	ep.log.Infof("Event processor stopped")
}

func (ep *EventProcessor) queueFor(roomID string) chan *RoomEvent {
	h := fnv.New32a()
	h.Write([]byte(roomID))
	return ep.queues[h.Sum32()%uint32(len(ep.queues))]
}

// PublishEvent queues an event. It never blocks: when the room's queue is
// full the event is dropped.
func (ep *EventProcessor) PublishEvent(ev *RoomEvent) bool {
	ep.mu.Lock()
	started := ep.started
	ep.mu.Unlock()

	if !started {
		ep.log.Warnf("Event processor not started, dropping event: %s", ev.Type)
		return false
	}

	select {
	case ep.queueFor(ev.RoomID) <- ev:
		ep.log.Tracef("Queued event %s for room %s v%d", ev.Type, ev.RoomID, ev.Version)
		return true
	default:
		ep.log.Errorf("Event queue full, dropping event %s for room %s v%d", ev.Type, ev.RoomID, ev.Version)
		return false
	}
}

func (ep *EventProcessor) run(i int) {
	defer ep.wg.Done()
	queue := ep.queues[i]
	for {
		select {
		case ev := <-queue:
			ep.deliver(i, ev)
		case <-ep.stopChan:
			// Flush what is already queued.
			for {
				select {
				case ev := <-queue:
					ep.deliver(i, ev)
				default:
					return
				}
			}
		}
	}
}

func (ep *EventProcessor) deliver(worker int, ev *RoomEvent) {
	if ep.publisher == nil || ev == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ep.timeout)
	defer cancel()
	if err := ep.publisher.Publish(ctx, ev); err != nil {
		ep.log.Errorf("Worker %d failed to publish %s for room %s: %v", worker, ev.Type, ev.RoomID, err)
	}
}
