package protocol

import (
	"errors"

	"github.com/mcoot/buzzer/internal/model"
)

// Error codes sent to clients
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeRoomNotFound   = "ROOM_NOT_FOUND"
	CodeLocked         = "LOCKED"
	CodeNotAPlayer     = "NOT_A_PLAYER"
	CodeForbidden      = "FORBIDDEN"
	CodeInternal       = "INTERNAL_ERROR"
)

// ToError maps a domain error to its wire form
func ToError(err error) Error {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return Error{Code: CodeInvalidRequest, Message: err.Error()}
	case errors.Is(err, model.ErrRoomNotFound):
		return Error{Code: CodeRoomNotFound, Message: "Room not found."}
	case errors.Is(err, model.ErrLocked):
		return Error{Code: CodeLocked, Message: "Buzzers are locked!"}
	case errors.Is(err, model.ErrNotAPlayer):
		return Error{Code: CodeNotAPlayer, Message: "You are not a player in this room."}
	case errors.Is(err, model.ErrForbidden):
		return Error{Code: CodeForbidden, Message: "Only the host can do that."}
	default:
		return Error{Code: CodeInternal, Message: "Internal error."}
	}
}
