package round

import (
	"fmt"
	"log/slog"

	"github.com/mcoot/buzzer/internal/dependencies/clock"
	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/services/registry"
)

// Controller arms, disarms and resets a room's buzzers on behalf of its host
type Controller struct {
	registry *registry.Registry
	clock    clock.Clock
	logger   *slog.Logger
}

// NewController creates a new round Controller
func NewController(registry *registry.Registry, clock clock.Clock, logger *slog.Logger) *Controller {
	return &Controller{
		registry: registry,
		clock:    clock,
		logger:   logger.With(slog.String("component", "round")),
	}
}

// Start unlocks the buzzers
func (c *Controller) Start(id model.ConnectionID, rawCode string) (*model.Room, error) {
	room, err := c.hostRoom(id, rawCode)
	if err != nil {
		return nil, err
	}

	// A restart after stop continues the same round while the ledger holds entries
	now := c.clock.Now()
	if room.Locked && len(room.Buzzes) == 0 {
		room.OpenedAt = now
	}
	room.Locked = false
	room.UpdatedAt = now

	c.logger.Info("round started", slog.String("room", string(room.Code)))
	return room, nil
}

// Stop locks the buzzers, keeping the ledger
func (c *Controller) Stop(id model.ConnectionID, rawCode string) (*model.Room, error) {
	room, err := c.hostRoom(id, rawCode)
	if err != nil {
		return nil, err
	}

	room.Locked = true
	room.UpdatedAt = c.clock.Now()

	c.logger.Info("round stopped",
		slog.String("room", string(room.Code)),
		slog.Int("buzzes", len(room.Buzzes)))
	return room, nil
}

// Reset clears the ledger and locks the buzzers. When the cleared ledger was
// non-empty the finished round is returned for archiving.
func (c *Controller) Reset(id model.ConnectionID, rawCode string) (*model.Room, *model.RoundSummary, error) {
	room, err := c.hostRoom(id, rawCode)
	if err != nil {
		return nil, nil, err
	}

	now := c.clock.Now()
	var summary *model.RoundSummary
	if len(room.Buzzes) > 0 {
		room.Round++
		summary = &model.RoundSummary{
			Room:     room.Code,
			Round:    room.Round,
			Buzzes:   room.Buzzes,
			OpenedAt: room.OpenedAt,
			ClosedAt: now,
		}
	}

	room.Buzzes = []model.BuzzEvent{}
	room.Locked = true
	room.UpdatedAt = now

	c.logger.Info("round reset",
		slog.String("room", string(room.Code)),
		slog.Bool("archived", summary != nil))
	return room, summary, nil
}

func (c *Controller) hostRoom(id model.ConnectionID, rawCode string) (*model.Room, error) {
	code := model.NormalizeRoomCode(rawCode)
	if code == "" {
		return nil, fmt.Errorf("%w: room is required", model.ErrInvalidRequest)
	}

	room, ok := c.registry.Get(code)
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	if !room.HasHost() || room.Host != id {
		return nil, model.ErrForbidden
	}
	return room, nil
}
