package response

import (
	"time"

	"github.com/mcoot/buzzer/internal/model"
)

// Health is the response of the health endpoint
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Buzz represents a ledger entry. Connection identities are never exposed.
type Buzz struct {
	PlayerName string    `json:"player_name"`
	Rank       int       `json:"rank"`
	Timestamp  time.Time `json:"timestamp"`
	OffsetMs   int64     `json:"offset_ms"`
}

// BuzzesFromModel converts a ledger, measuring offsets from its first entry
func BuzzesFromModel(buzzes []model.BuzzEvent) []Buzz {
	result := make([]Buzz, len(buzzes))
	for i, b := range buzzes {
		result[i] = Buzz{
			PlayerName: b.DisplayName,
			Rank:       b.Rank,
			Timestamp:  b.Timestamp,
			OffsetMs:   model.Offset(buzzes, b).Milliseconds(),
		}
	}
	return result
}

// Room represents the live state of a room
type Room struct {
	Code    string   `json:"code"`
	Locked  bool     `json:"locked"`
	HasHost bool     `json:"has_host"`
	Players []string `json:"players"`
	Buzzes  []Buzz   `json:"buzzes"`
}

// RoomFromSnapshot converts model.RoomSnapshot
func RoomFromSnapshot(s model.RoomSnapshot) Room {
	players := s.Players
	if players == nil {
		players = []string{}
	}
	return Room{
		Code:    string(s.Code),
		Locked:  s.Locked,
		HasHost: s.HasHost,
		Players: players,
		Buzzes:  BuzzesFromModel(s.Buzzes),
	}
}

// RoomSummary represents a room in listings
type RoomSummary struct {
	Code        string    `json:"code"`
	PlayerCount int       `json:"player_count"`
	BuzzCount   int       `json:"buzz_count"`
	HasHost     bool      `json:"has_host"`
	Locked      bool      `json:"locked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoomList is the response of the room listing endpoint
type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

// RoomListFromModel converts room summaries
func RoomListFromModel(rooms []model.RoomSummary) RoomList {
	result := make([]RoomSummary, len(rooms))
	for i, r := range rooms {
		result[i] = RoomSummary{
			Code:        string(r.Code),
			PlayerCount: r.PlayerCount,
			BuzzCount:   r.BuzzCount,
			HasHost:     r.HasHost,
			Locked:      r.Locked,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return RoomList{Rooms: result}
}

// NewRoomCode is the response of the code generation endpoint
type NewRoomCode struct {
	Code    string `json:"code"`
	JoinURL string `json:"join_url"`
}

// Round represents an archived round
type Round struct {
	Round    int       `json:"round"`
	OpenedAt time.Time `json:"opened_at"`
	ClosedAt time.Time `json:"closed_at"`
	Buzzes   []Buzz    `json:"buzzes"`
}

// History is the response of the room history endpoint
type History struct {
	Code   string  `json:"code"`
	Rounds []Round `json:"rounds"`
}

// HistoryFromModel converts archived rounds
func HistoryFromModel(code model.RoomCode, rounds []model.RoundSummary) History {
	result := make([]Round, len(rounds))
	for i, r := range rounds {
		result[i] = Round{
			Round:    r.Round,
			OpenedAt: r.OpenedAt,
			ClosedAt: r.ClosedAt,
			Buzzes:   BuzzesFromModel(r.Buzzes),
		}
	}
	return History{Code: string(code), Rounds: result}
}
