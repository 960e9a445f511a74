package memory

import (
	"context"
	"sync"

	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/storage"
)

// DefaultLimit is the number of rounds kept per room when none is configured
const DefaultLimit = 20

// Storage is an in-memory implementation of storage.RoundStore
type Storage struct {
	mu     sync.RWMutex
	rounds map[model.RoomCode][]model.RoundSummary // oldest first
	limit  int
}

// Ensure Storage implements the interface
var _ storage.RoundStore = (*Storage)(nil)

// New creates a new in-memory round store keeping at most limit rounds per room
func New(limit int) *Storage {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Storage{
		rounds: make(map[model.RoomCode][]model.RoundSummary),
		limit:  limit,
	}
}

func (s *Storage) AppendRound(ctx context.Context, summary *model.RoundSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *summary
	stored.Buzzes = append([]model.BuzzEvent(nil), summary.Buzzes...)

	rounds := append(s.rounds[summary.Room], stored)
	if len(rounds) > s.limit {
		rounds = append([]model.RoundSummary(nil), rounds[len(rounds)-s.limit:]...)
	}
	s.rounds[summary.Room] = rounds
	return nil
}

func (s *Storage) ListRounds(ctx context.Context, code model.RoomCode) ([]model.RoundSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rounds := s.rounds[code]
	result := make([]model.RoundSummary, 0, len(rounds))
	for i := len(rounds) - 1; i >= 0; i-- {
		r := rounds[i]
		r.Buzzes = append([]model.BuzzEvent(nil), r.Buzzes...)
		result = append(result, r)
	}
	return result, nil
}

func (s *Storage) DeleteRounds(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rounds, code)
	return nil
}

// Close is a no-op for memory storage
func (s *Storage) Close() error {
	return nil
}
