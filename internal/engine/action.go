package engine

import "github.com/mcoot/buzzer/internal/model"

// Kind names an inbound action
type Kind string

const (
	KindJoin       Kind = "join_room"
	KindBuzz       Kind = "buzz"
	KindStartRound Kind = "start_round"
	KindStopRound  Kind = "stop_round"
	KindReset      Kind = "reset"
	KindDisconnect Kind = "disconnect"
)

// Action is one request from a connection, processed to completion by the dispatcher
type Action struct {
	Kind Kind
	Conn model.ConnectionID
	Room string
	Name string
	Role string
}
