package model

import (
	"strings"
	"time"
)

// ConnectionID uniquely identifies one live transport connection
type ConnectionID string

// Role is the part a connection plays in a room
type Role string

const (
	RoleHost   Role = "HOST"
	RolePlayer Role = "PLAYER"
)

// ParseRole accepts HOST or PLAYER in any case
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleHost:
		return RoleHost, true
	case RolePlayer:
		return RolePlayer, true
	default:
		return "", false
	}
}

// PlayerInfo is what a room knows about one of its players
type PlayerInfo struct {
	DisplayName string
	JoinedAt    time.Time
}
