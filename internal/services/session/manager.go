package session

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/buzzer/internal/dependencies/clock"
	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/services/registry"
)

// Manager binds connections to rooms as host or player, and keeps an index
// from connection to the rooms it holds a role in.
type Manager struct {
	registry *registry.Registry
	clock    clock.Clock
	logger   *slog.Logger

	index map[model.ConnectionID]map[model.RoomCode]struct{}
}

// NewManager creates a new session Manager
func NewManager(registry *registry.Registry, clock clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		registry: registry,
		clock:    clock,
		logger:   logger.With(slog.String("component", "session")),
		index:    make(map[model.ConnectionID]map[model.RoomCode]struct{}),
	}
}

// Join binds the connection to a room, creating the room on first use.
// A HOST join always takes over the host slot.
func (m *Manager) Join(id model.ConnectionID, rawCode, name, rawRole string) (*model.Room, error) {
	code := model.NormalizeRoomCode(rawCode)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, fmt.Errorf("%w: room is required", model.ErrInvalidRequest)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrInvalidRequest)
	}
	role, ok := model.ParseRole(rawRole)
	if !ok {
		return nil, fmt.Errorf("%w: role must be HOST or PLAYER", model.ErrInvalidRequest)
	}

	room := m.registry.GetOrCreate(code)
	now := m.clock.Now()
	logger := m.logger.With(slog.String("room", string(code)))

	switch role {
	case model.RoleHost:
		previous := room.Host
		room.Host = id
		if previous != "" && previous != id {
			if _, stillPlayer := room.Players[previous]; !stillPlayer {
				m.unindex(previous, code)
			}
			logger.Info("host replaced", slog.String("name", name))
		} else {
			logger.Info("host joined", slog.String("name", name))
		}
	case model.RolePlayer:
		room.UpsertPlayer(id, model.PlayerInfo{DisplayName: name, JoinedAt: now})
		logger.Info("player joined",
			slog.String("name", name),
			slog.Int("player_count", len(room.Players)))
	}

	room.UpdatedAt = now
	m.indexRoom(id, code)
	return room, nil
}

// Leave clears every role held by the connection and returns the rooms it
// was removed from. Rooms are not deleted here.
func (m *Manager) Leave(id model.ConnectionID) []*model.Room {
	codes, ok := m.index[id]
	if !ok {
		return nil
	}
	delete(m.index, id)

	left := make([]*model.Room, 0, len(codes))
	for code := range codes {
		room, ok := m.registry.Get(code)
		if !ok {
			continue
		}

		changed := false
		if room.Host == id {
			room.Host = ""
			changed = true
			m.logger.Info("host left", slog.String("room", string(code)))
		}
		if info, wasPlayer := room.Players[id]; wasPlayer {
			room.RemovePlayer(id)
			changed = true
			m.logger.Info("player left",
				slog.String("room", string(code)),
				slog.String("name", info.DisplayName),
				slog.Int("player_count", len(room.Players)))
		}
		if changed {
			room.UpdatedAt = m.clock.Now()
			left = append(left, room)
		}
	}
	return left
}

func (m *Manager) indexRoom(id model.ConnectionID, code model.RoomCode) {
	codes, ok := m.index[id]
	if !ok {
		codes = make(map[model.RoomCode]struct{})
		m.index[id] = codes
	}
	codes[code] = struct{}{}
}

func (m *Manager) unindex(id model.ConnectionID, code model.RoomCode) {
	codes, ok := m.index[id]
	if !ok {
		return
	}
	delete(codes, code)
	if len(codes) == 0 {
		delete(m.index, id)
	}
}
