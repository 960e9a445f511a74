package model

import "errors"

// Errors reported back to the connection that issued a rejected action
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrRoomNotFound   = errors.New("room not found")
	ErrLocked         = errors.New("buzzers are locked")
	ErrNotAPlayer     = errors.New("not a player in this room")
	ErrForbidden      = errors.New("only the host can perform this action")
)
