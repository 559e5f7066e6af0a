package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/vctt94/holdem/pkg/server"
)

const gameType = "holdem"

// ChipUpdateMessage reports the net chip result of a finished hand so that
// balances can be settled elsewhere.
type ChipUpdateMessage struct {
	MessageID     string             `json:"message_id"`
	Timestamp     time.Time          `json:"timestamp"`
	GameType      string             `json:"game_type"`
	RoomID        string             `json:"room_id"`
	HandNumber    int64              `json:"hand_number"`
	PlayerChanges []PlayerChipChange `json:"player_changes"`
}

type PlayerChipChange struct {
	PlayerID string `json:"player_id"`
	Change   int64  `json:"change"`
}

// ChipUpdate builds the message for a finished hand. It returns nil for
// events that do not finish a hand.
func ChipUpdate(ev *server.RoomEvent) *ChipUpdateMessage {
	if !ev.HandFinished {
		return nil
	}
	msg := &ChipUpdateMessage{
		MessageID:     uuid.New().String(),
		Timestamp:     ev.Timestamp,
		GameType:      gameType,
		RoomID:        ev.RoomID,
		HandNumber:    ev.HandNumber,
		PlayerChanges: make([]PlayerChipChange, 0, len(ev.ChipChanges)),
	}
	for id, change := range ev.ChipChanges {
		msg.PlayerChanges = append(msg.PlayerChanges, PlayerChipChange{PlayerID: id, Change: change})
	}
	sort.Slice(msg.PlayerChanges, func(i, j int) bool {
		return msg.PlayerChanges[i].PlayerID < msg.PlayerChanges[j].PlayerID
	})
	return msg
}

// ChipUpdateRoutingKey is the topic key chip updates of roomID are sent with.
func ChipUpdateRoutingKey(roomID string) string {
	return fmt.Sprintf("poker.game.%s.chip_update.%s", gameType, roomID)
}

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher sends a ChipUpdateMessage to a topic exchange whenever a hand
// finishes. Other events are ignored.
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex
	ch amqpChannel
}

// NewAMQPPublisher dials url and declares exchange as a durable topic
// exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	p, err := newAMQPPublisher(ch, exchange)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch amqpChannel, exchange string) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &AMQPPublisher{ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(_ context.Context, ev *server.RoomEvent) error {
	msg := ChipUpdate(ev)
	if msg == nil {
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(p.exchange, ChipUpdateRoutingKey(ev.RoomID), false, false, amqp.Publishing{
		ContentType:     "application/json",
		ContentEncoding: "utf-8",
		Body:            body,
		DeliveryMode:    amqp.Persistent,
		MessageId:       msg.MessageID,
		Timestamp:       msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to publish chip update: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
