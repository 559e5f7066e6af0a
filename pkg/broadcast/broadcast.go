// Package broadcast carries room events out of the process. Publishers here
// implement server.Publisher.
package broadcast

import (
	"context"
	"errors"

	"github.com/decred/slog"

	"github.com/vctt94/holdem/pkg/server"
)

// Multi fans an event out to every publisher. All publishers are tried even
// when one fails.
type Multi []server.Publisher

func (m Multi) Publish(ctx context.Context, ev *server.RoomEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogPublisher writes a line per event to a logger.
type LogPublisher struct {
	Log slog.Logger
}

func (p LogPublisher) Publish(_ context.Context, ev *server.RoomEvent) error {
	if ev.HandFinished {
		p.Log.Infof("room %s v%d: hand %d finished, chip changes %v",
			ev.RoomID, ev.Version, ev.HandNumber, ev.ChipChanges)
		return nil
	}
	p.Log.Debugf("room %s v%d: %s user=%s action=%s phase=%s",
		ev.RoomID, ev.Version, ev.Type, ev.UserID, ev.Action, ev.Phase)
	return nil
}
