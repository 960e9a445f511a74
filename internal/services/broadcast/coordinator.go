package broadcast

import (
	"log/slog"

	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/protocol"
	"github.com/mcoot/buzzer/internal/services/registry"
)

// Transport delivers encoded frames to connections. Implementations must not
// block: frames are queued per connection and written elsewhere.
type Transport interface {
	JoinGroup(code model.RoomCode, id model.ConnectionID)
	DropGroup(code model.RoomCode)
	SendToGroup(code model.RoomCode, frame []byte)
	SendTo(id model.ConnectionID, frame []byte)
}

// Coordinator pushes room state and signals to room members
type Coordinator struct {
	registry  *registry.Registry
	transport Transport
	logger    *slog.Logger
}

// NewCoordinator creates a new broadcast Coordinator
func NewCoordinator(registry *registry.Registry, transport Transport, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		registry:  registry,
		transport: transport,
		logger:    logger.With(slog.String("component", "broadcast")),
	}
}

// Subscribe adds the connection to the room's group
func (c *Coordinator) Subscribe(code model.RoomCode, id model.ConnectionID) {
	c.transport.JoinGroup(code, id)
}

// Disband removes every member from the room's group
func (c *Coordinator) Disband(code model.RoomCode) {
	c.transport.DropGroup(code)
}

// PublishSnapshot sends the room's current state to every member.
// An absent room sends nothing.
func (c *Coordinator) PublishSnapshot(code model.RoomCode) {
	room, ok := c.registry.Get(code)
	if !ok {
		return
	}

	frame, err := protocol.EncodeRoomUpdate(room.Snapshot())
	if err != nil {
		c.logger.Error("failed to encode room update",
			slog.String("room", string(code)),
			slog.Any("error", err))
		return
	}
	c.transport.SendToGroup(code, frame)
}

// PublishBuzz sends the single-entry buzz signal to every member
func (c *Coordinator) PublishBuzz(code model.RoomCode, first, event model.BuzzEvent) {
	frame, err := protocol.EncodeBuzzed(first, event)
	if err != nil {
		c.logger.Error("failed to encode buzz",
			slog.String("room", string(code)),
			slog.Any("error", err))
		return
	}
	c.PublishEvent(code, frame)
}

// Acknowledge tells the buzzing connection which entry is its own
func (c *Coordinator) Acknowledge(id model.ConnectionID, first, event model.BuzzEvent) {
	frame, err := protocol.EncodeBuzzAccepted(first, event)
	if err != nil {
		c.logger.Error("failed to encode buzz confirmation", slog.Any("error", err))
		return
	}
	c.transport.SendTo(id, frame)
}

// PublishReset sends the reset signal to every member
func (c *Coordinator) PublishReset(code model.RoomCode) {
	frame, err := protocol.EncodeResetBuzzer()
	if err != nil {
		c.logger.Error("failed to encode reset", slog.Any("error", err))
		return
	}
	c.PublishEvent(code, frame)
}

// PublishEvent sends an already encoded signal to every member
func (c *Coordinator) PublishEvent(code model.RoomCode, frame []byte) {
	c.transport.SendToGroup(code, frame)
}

// SendError reports a rejected action to the requesting connection only
func (c *Coordinator) SendError(id model.ConnectionID, err error) {
	frame, encErr := protocol.EncodeError(err)
	if encErr != nil {
		c.logger.Error("failed to encode error", slog.Any("error", encErr))
		return
	}
	c.transport.SendTo(id, frame)
}
