package ledger

import (
	"fmt"
	"log/slog"

	"github.com/mcoot/buzzer/internal/dependencies/clock"
	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/services/registry"
)

// Ledger records buzzes in arrival order
type Ledger struct {
	registry *registry.Registry
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates a new Ledger
func New(registry *registry.Registry, clock clock.Clock, logger *slog.Logger) *Ledger {
	return &Ledger{
		registry: registry,
		clock:    clock,
		logger:   logger.With(slog.String("component", "ledger")),
	}
}

// RecordBuzz appends a buzz for the player. recorded is false, with no error,
// when the player already holds a place in the current round.
func (l *Ledger) RecordBuzz(id model.ConnectionID, rawCode string) (event model.BuzzEvent, recorded bool, err error) {
	code := model.NormalizeRoomCode(rawCode)
	if code == "" {
		return model.BuzzEvent{}, false, fmt.Errorf("%w: room is required", model.ErrInvalidRequest)
	}

	room, ok := l.registry.Get(code)
	if !ok {
		return model.BuzzEvent{}, false, model.ErrRoomNotFound
	}
	if room.Locked {
		return model.BuzzEvent{}, false, model.ErrLocked
	}
	info, ok := room.Players[id]
	if !ok {
		return model.BuzzEvent{}, false, model.ErrNotAPlayer
	}
	if room.HasBuzzed(id) {
		l.logger.Debug("duplicate buzz ignored", slog.String("room", string(code)))
		return model.BuzzEvent{}, false, nil
	}

	// Never let a wall clock step backwards reorder timestamps within a round
	now := l.clock.Now()
	if n := len(room.Buzzes); n > 0 && now.Before(room.Buzzes[n-1].Timestamp) {
		now = room.Buzzes[n-1].Timestamp
	}

	event = model.BuzzEvent{
		PlayerID:    id,
		DisplayName: info.DisplayName,
		Timestamp:   now,
		Rank:        len(room.Buzzes) + 1,
	}
	room.Buzzes = append(room.Buzzes, event)
	room.UpdatedAt = now

	l.logger.Debug("buzz recorded",
		slog.String("room", string(code)),
		slog.String("name", info.DisplayName),
		slog.Int("rank", event.Rank),
		slog.Duration("offset", model.Offset(room.Buzzes, event)))
	return event, true, nil
}
