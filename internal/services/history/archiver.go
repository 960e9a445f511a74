package history

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/storage"
)

const (
	queueSize    = 256
	storeTimeout = 5 * time.Second
)

// ErrClosed is returned by List after Close
var ErrClosed = errors.New("archiver closed")

type job struct {
	summary *model.RoundSummary
	forget  model.RoomCode
}

// Archiver writes finished rounds to a RoundStore from its own goroutine so
// the dispatcher never waits on storage. Jobs run in submission order.
type Archiver struct {
	store  storage.RoundStore
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan job
	done   chan struct{}
}

// NewArchiver creates an Archiver and starts its worker
func NewArchiver(store storage.RoundStore, logger *slog.Logger) *Archiver {
	a := &Archiver{
		store:  store,
		logger: logger.With(slog.String("component", "history")),
		queue:  make(chan job, queueSize),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Archive queues a finished round. It never blocks; a full queue drops the round.
func (a *Archiver) Archive(summary model.RoundSummary) {
	a.enqueue(job{summary: &summary})
}

// Forget queues removal of a room's archive
func (a *Archiver) Forget(code model.RoomCode) {
	a.enqueue(job{forget: code})
}

// List returns the archived rounds of a room, most recent first
func (a *Archiver) List(ctx context.Context, code model.RoomCode) ([]model.RoundSummary, error) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return a.store.ListRounds(ctx, code)
}

// Close stops accepting jobs and waits for queued ones to finish
func (a *Archiver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
}

func (a *Archiver) enqueue(j job) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		a.logger.Warn("archive job after close dropped")
		return
	}
	select {
	case a.queue <- j:
	default:
		a.logger.Warn("archive job dropped - queue full")
	}
}

func (a *Archiver) run() {
	defer close(a.done)
	for j := range a.queue {
		a.process(j)
	}
}

func (a *Archiver) process(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if j.summary != nil {
		if err := a.store.AppendRound(ctx, j.summary); err != nil {
			a.logger.Error("failed to archive round",
				slog.String("room", string(j.summary.Room)),
				slog.Int("round", j.summary.Round),
				slog.Any("error", err))
			return
		}
		a.logger.Debug("round archived",
			slog.String("room", string(j.summary.Room)),
			slog.Int("round", j.summary.Round),
			slog.Int("buzzes", len(j.summary.Buzzes)))
		return
	}

	if err := a.store.DeleteRounds(ctx, j.forget); err != nil {
		a.logger.Error("failed to purge room history",
			slog.String("room", string(j.forget)),
			slog.Any("error", err))
	}
}
