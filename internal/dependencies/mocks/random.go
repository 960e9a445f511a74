package mocks

import (
	"sync"

	"github.com/mcoot/buzzer/internal/dependencies/random"
)

// MockRandom returns queued strings in order. It is safe to queue from a
// test while the dispatcher draws from it.
type MockRandom struct {
	mu      sync.Mutex
	results []string
	lengths []int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// String pops the next queued result, or returns "" once the queue is empty
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lengths = append(r.lengths, length)
	if len(r.results) == 0 {
		return ""
	}
	result := r.results[0]
	r.results = r.results[1:]
	return result
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, values...)
}

// Requested returns the length asked for by every String call so far
func (r *MockRandom) Requested() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.lengths...)
}
