package redis

import (
	"fmt"

	"github.com/mcoot/buzzer/internal/model"
)

// Key prefix for all buzzer data
const keyPrefix = "buzzer"

// roundsKey returns the Redis key for the LIST of archived rounds of a room
func roundsKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:rounds:%s", keyPrefix, code)
}
