package storage

import (
	"context"

	"github.com/mcoot/buzzer/internal/model"
)

// RoundStore archives the outcome of finished rounds. Live room state is never
// stored here; it only lives in the dispatcher's registry.
type RoundStore interface {
	// AppendRound records a round, evicting the oldest rounds beyond the per-room limit
	AppendRound(ctx context.Context, summary *model.RoundSummary) error

	// ListRounds returns archived rounds for a room, most recent first.
	// An unknown room yields an empty slice.
	ListRounds(ctx context.Context, code model.RoomCode) ([]model.RoundSummary, error)

	// DeleteRounds drops the whole archive of a room
	DeleteRounds(ctx context.Context, code model.RoomCode) error

	Close() error
}
