package registry

import (
	"log/slog"
	"sort"

	"github.com/mcoot/buzzer/internal/dependencies/clock"
	"github.com/mcoot/buzzer/internal/dependencies/random"
	"github.com/mcoot/buzzer/internal/model"
)

const (
	// CodeLength is the length of generated room codes
	CodeLength = 4
	// CodeAlphabet is the characters used in generated room codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxCodeAttempts = 100
)

// Registry owns the table of live rooms. It is not safe for concurrent use:
// the dispatcher is its only caller.
type Registry struct {
	rooms  map[model.RoomCode]*model.Room
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// New creates an empty Registry
func New(clock clock.Clock, random random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[model.RoomCode]*model.Room),
		clock:  clock,
		random: random,
		logger: logger.With(slog.String("component", "registry")),
	}
}

// GetOrCreate returns the room for code, creating a locked empty room if absent
func (r *Registry) GetOrCreate(code model.RoomCode) *model.Room {
	if room, ok := r.rooms[code]; ok {
		return room
	}

	room := model.NewRoom(code, r.clock.Now())
	r.rooms[code] = room
	r.logger.Info("room created",
		slog.String("room", string(code)),
		slog.Int("total_rooms", len(r.rooms)))
	return room
}

// Get returns the room for code, if any
func (r *Registry) Get(code model.RoomCode) (*model.Room, bool) {
	room, ok := r.rooms[code]
	return room, ok
}

// DeleteIfEmpty removes the room iff it has no host and no players.
// It reports whether a room was removed.
func (r *Registry) DeleteIfEmpty(code model.RoomCode) bool {
	room, ok := r.rooms[code]
	if !ok || !room.IsEmpty() {
		return false
	}

	delete(r.rooms, code)
	r.logger.Info("room deleted",
		slog.String("room", string(code)),
		slog.Int("rounds_played", room.Round),
		slog.Duration("lifetime", r.clock.Now().Sub(room.CreatedAt)),
		slog.Int("total_rooms", len(r.rooms)))
	return true
}

// Len returns the number of live rooms
func (r *Registry) Len() int {
	return len(r.rooms)
}

// Rooms summarises every live room, ordered by code
func (r *Registry) Rooms() []model.RoomSummary {
	summaries := make([]model.RoomSummary, 0, len(r.rooms))
	for _, room := range r.rooms {
		summaries = append(summaries, model.RoomSummary{
			Code:        room.Code,
			PlayerCount: len(room.Players),
			BuzzCount:   len(room.Buzzes),
			HasHost:     room.HasHost(),
			Locked:      room.Locked,
			CreatedAt:   room.CreatedAt,
			UpdatedAt:   room.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Code < summaries[j].Code
	})
	return summaries
}

// NewCode generates a code that no live room is using
func (r *Registry) NewCode() (model.RoomCode, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := model.NormalizeRoomCode(r.random.String(CodeLength, CodeAlphabet))
		if code == "" {
			continue
		}
		if _, taken := r.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrNoFreeCode
}
