package model

import "time"

// RoomSnapshot is the full derived view of a room pushed to its members.
// Connection identities never appear in Players.
type RoomSnapshot struct {
	Code    RoomCode
	Locked  bool
	Buzzes  []BuzzEvent
	Players []string
	HasHost bool
}

// RoomSummary is a short description of a live room
type RoomSummary struct {
	Code        RoomCode
	PlayerCount int
	BuzzCount   int
	HasHost     bool
	Locked      bool
	CreatedAt   time.Time
	// UpdatedAt is the last membership, buzz or round change
	UpdatedAt time.Time
}
