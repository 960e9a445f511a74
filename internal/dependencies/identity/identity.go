package identity

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mcoot/buzzer/internal/model"
)

// Source hands out a unique identity for every new connection
type Source interface {
	Next() model.ConnectionID
}

// ULIDSource generates lexically sortable, monotonic ULIDs
type ULIDSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a ULIDSource seeded from the current time
func New() *ULIDSource {
	return &ULIDSource{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (s *ULIDSource) Next() model.ConnectionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ConnectionID(ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String())
}
