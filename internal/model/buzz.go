package model

import "time"

// BuzzEvent is one accepted buzz. It is immutable once appended to a ledger.
type BuzzEvent struct {
	PlayerID    ConnectionID `json:"player_id"`
	DisplayName string       `json:"display_name"` // snapshot of the name at buzz time
	Timestamp   time.Time    `json:"timestamp"`
	Rank        int          `json:"rank"` // 1-indexed position in the ledger
}

// Offset returns the time elapsed between the first buzz of the round and b
func Offset(buzzes []BuzzEvent, b BuzzEvent) time.Duration {
	if len(buzzes) == 0 {
		return 0
	}
	return b.Timestamp.Sub(buzzes[0].Timestamp)
}
