package model

import "time"

// RoundSummary is the archived outcome of a round, written when the host resets
type RoundSummary struct {
	Room     RoomCode    `json:"room"`
	Round    int         `json:"round"`
	Buzzes   []BuzzEvent `json:"buzzes"`
	OpenedAt time.Time   `json:"opened_at"`
	ClosedAt time.Time   `json:"closed_at"`
}
