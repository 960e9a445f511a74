package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/buzzer/internal/dependencies/identity"
	"github.com/mcoot/buzzer/internal/model"
)

// SequenceIdentity hands out conn-1, conn-2, ... in order
type SequenceIdentity struct {
	mu   sync.Mutex
	next int
}

var _ identity.Source = (*SequenceIdentity)(nil)

// NewSequenceIdentity creates a SequenceIdentity starting at conn-1
func NewSequenceIdentity() *SequenceIdentity {
	return &SequenceIdentity{}
}

func (s *SequenceIdentity) Next() model.ConnectionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return model.ConnectionID(fmt.Sprintf("conn-%d", s.next))
}
