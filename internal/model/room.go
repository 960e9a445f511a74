package model

import (
	"strings"
	"time"
)

// RoomCode is the human-typed identifier of a room, always held in canonical upper-case form
type RoomCode string

// NormalizeRoomCode converts user input into its canonical RoomCode
func NormalizeRoomCode(raw string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}

// Room is the server-authoritative state of one buzzer session
type Room struct {
	Code      RoomCode
	Host      ConnectionID // empty when the room has no host
	Players   map[ConnectionID]PlayerInfo
	Buzzes    []BuzzEvent // insertion order is ranking order
	Locked    bool
	Round     int       // completed rounds, incremented by each reset
	OpenedAt  time.Time // last time the buzzers were unlocked
	CreatedAt time.Time
	UpdatedAt time.Time

	// Vacancy identifies the pending deferred deletion, if any. A deletion
	// only fires if it has not changed since it was scheduled.
	Vacancy uint64

	playerOrder []ConnectionID
}

// NewRoom creates an empty, locked room
func NewRoom(code RoomCode, now time.Time) *Room {
	return &Room{
		Code:      code,
		Players:   make(map[ConnectionID]PlayerInfo),
		Buzzes:    []BuzzEvent{},
		Locked:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasHost reports whether a host connection is bound to the room
func (r *Room) HasHost() bool {
	return r.Host != ""
}

// IsEmpty reports whether the room has neither host nor players
func (r *Room) IsEmpty() bool {
	return !r.HasHost() && len(r.Players) == 0
}

// Contains reports whether the connection holds any role in the room
func (r *Room) Contains(id ConnectionID) bool {
	if r.Host == id {
		return true
	}
	_, ok := r.Players[id]
	return ok
}

// UpsertPlayer adds the player or replaces its info, keeping its original position
func (r *Room) UpsertPlayer(id ConnectionID, info PlayerInfo) {
	if _, ok := r.Players[id]; !ok {
		r.playerOrder = append(r.playerOrder, id)
	}
	r.Players[id] = info
}

// RemovePlayer deletes the player, returning false if it was not present
func (r *Room) RemovePlayer(id ConnectionID) bool {
	if _, ok := r.Players[id]; !ok {
		return false
	}
	delete(r.Players, id)
	for i, pid := range r.playerOrder {
		if pid == id {
			r.playerOrder = append(r.playerOrder[:i], r.playerOrder[i+1:]...)
			break
		}
	}
	return true
}

// PlayerNames returns display names in join order
func (r *Room) PlayerNames() []string {
	names := make([]string, 0, len(r.playerOrder))
	for _, id := range r.playerOrder {
		names = append(names, r.Players[id].DisplayName)
	}
	return names
}

// HasBuzzed reports whether the connection already has an entry in the current ledger
func (r *Room) HasBuzzed(id ConnectionID) bool {
	for _, b := range r.Buzzes {
		if b.PlayerID == id {
			return true
		}
	}
	return false
}

// Snapshot derives the client-facing view of the room
func (r *Room) Snapshot() RoomSnapshot {
	buzzes := make([]BuzzEvent, len(r.Buzzes))
	copy(buzzes, r.Buzzes)

	return RoomSnapshot{
		Code:    r.Code,
		Locked:  r.Locked,
		Buzzes:  buzzes,
		Players: r.PlayerNames(),
		HasHost: r.HasHost(),
	}
}
