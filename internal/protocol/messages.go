package protocol

import (
	"encoding/json"
	"time"

	"github.com/mcoot/buzzer/internal/model"
)

// Inbound action types
const (
	TypeJoinRoom   = "join_room"
	TypeBuzz       = "buzz"
	TypeStartRound = "start_round"
	TypeStopRound  = "stop_round"
	TypeReset      = "reset"
)

// Outbound signal types
const (
	TypeWelcome      = "welcome"
	TypeRoomUpdate   = "room_update"
	TypeBuzzed       = "buzzed"
	TypeBuzzAccepted = "buzz_accepted"
	TypeResetBuzzer  = "reset_buzzer"
	TypeError        = "error"
)

// Request is an action sent by a client
type Request struct {
	Type string `json:"type"`
	Room string `json:"room,omitempty"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// Envelope wraps every signal sent to clients
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Buzz is the wire form of a ledger entry. It carries no connection identity.
type Buzz struct {
	PlayerName string `json:"playerName"`
	Timestamp  int64  `json:"timestamp"` // unix milliseconds
	Rank       int    `json:"rank"`
	OffsetMs   int64  `json:"offsetMs"`
}

// RoomUpdate is the wire form of a RoomSnapshot
type RoomUpdate struct {
	RoomCode string   `json:"roomCode"`
	Locked   bool     `json:"locked"`
	Buzzes   []Buzz   `json:"buzzes"`
	Players  []string `json:"players"`
	HasHost  bool     `json:"hasHost"`
}

// Welcome is sent once per connection before anything else
type Welcome struct {
	Version string `json:"version"`
}

// Error reports a rejected action to the connection that sent it
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBuzz converts a ledger entry, measuring its offset against the round's first buzz
func NewBuzz(first time.Time, b model.BuzzEvent) Buzz {
	return Buzz{
		PlayerName: b.DisplayName,
		Timestamp:  b.Timestamp.UnixMilli(),
		Rank:       b.Rank,
		OffsetMs:   b.Timestamp.Sub(first).Milliseconds(),
	}
}

// NewRoomUpdate converts a snapshot to its wire form
func NewRoomUpdate(s model.RoomSnapshot) RoomUpdate {
	buzzes := make([]Buzz, 0, len(s.Buzzes))
	for _, b := range s.Buzzes {
		buzzes = append(buzzes, NewBuzz(s.Buzzes[0].Timestamp, b))
	}
	players := s.Players
	if players == nil {
		players = []string{}
	}
	return RoomUpdate{
		RoomCode: string(s.Code),
		Locked:   s.Locked,
		Buzzes:   buzzes,
		Players:  players,
		HasHost:  s.HasHost,
	}
}
