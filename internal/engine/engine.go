package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/buzzer/internal/dependencies/clock"
	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/services/broadcast"
	"github.com/mcoot/buzzer/internal/services/ledger"
	"github.com/mcoot/buzzer/internal/services/registry"
	"github.com/mcoot/buzzer/internal/services/round"
	"github.com/mcoot/buzzer/internal/services/session"
)

// ErrClosed is returned for work submitted after Close
var ErrClosed = errors.New("engine closed")

// Archiver receives finished rounds and purges deleted rooms' history
type Archiver interface {
	Archive(summary model.RoundSummary)
	Forget(code model.RoomCode)
}

// Config holds dispatcher settings
type Config struct {
	// GracePeriod delays deletion of a room that has become empty. Zero deletes at once.
	GracePeriod time.Duration
	QueueSize   int
}

type request struct {
	fn   func()
	done chan struct{}
}

// Engine owns every room and runs all actions on a single goroutine, one at a
// time, so that buzz order is arrival order.
type Engine struct {
	registry    *registry.Registry
	sessions    *session.Manager
	ledger      *ledger.Ledger
	rounds      *round.Controller
	broadcaster *broadcast.Coordinator
	archiver    Archiver
	clock       clock.Clock
	cfg         Config
	logger      *slog.Logger

	// vacancies numbers every scheduled deletion so a stale timer can tell it lost
	vacancies uint64

	requests chan request
	quit     chan struct{}
	stopped  chan struct{}
}

// New creates an Engine. Call Run to start processing.
func New(
	registry *registry.Registry,
	sessions *session.Manager,
	ledger *ledger.Ledger,
	rounds *round.Controller,
	broadcaster *broadcast.Coordinator,
	archiver Archiver,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	return &Engine{
		registry:    registry,
		sessions:    sessions,
		ledger:      ledger,
		rounds:      rounds,
		broadcaster: broadcaster,
		archiver:    archiver,
		clock:       clock,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "engine")),
		requests:    make(chan request, cfg.QueueSize),
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Run processes requests until Close is called
func (e *Engine) Run() {
	e.logger.Info("dispatcher started", slog.Duration("grace_period", e.cfg.GracePeriod))
	defer close(e.stopped)
	for {
		select {
		case req := <-e.requests:
			e.execute(req)
		case <-e.quit:
			e.logger.Info("dispatcher stopped", slog.Int("rooms", e.registry.Len()))
			return
		}
	}
}

// Close stops the dispatcher. Requests not yet started fail with ErrClosed.
func (e *Engine) Close() {
	select {
	case <-e.quit:
	default:
		close(e.quit)
	}
	<-e.stopped
}

func (e *Engine) execute(req request) {
	defer close(req.done)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic in dispatcher", slog.Any("error", r))
		}
	}()
	req.fn()
}

// exec runs fn on the dispatcher and waits for it. Once fn has been accepted it
// always runs to completion, even if ctx is cancelled while waiting.
func (e *Engine) exec(ctx context.Context, fn func()) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case e.requests <- req:
	case <-e.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-e.stopped:
		// Run exited; fn may still have run if it was dequeued first
		select {
		case <-req.done:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit runs an action and returns its outcome. Rejections have already been
// reported to the acting connection when Submit returns.
func (e *Engine) Submit(ctx context.Context, a Action) error {
	var result error
	if err := e.exec(ctx, func() { result = e.handle(a) }); err != nil {
		return err
	}
	return result
}

// Disconnect releases every role held by the connection
func (e *Engine) Disconnect(ctx context.Context, id model.ConnectionID) error {
	return e.Submit(ctx, Action{Kind: KindDisconnect, Conn: id})
}

// Snapshot returns the current state of a room
func (e *Engine) Snapshot(ctx context.Context, rawCode string) (model.RoomSnapshot, error) {
	var (
		snap   model.RoomSnapshot
		result error
	)
	err := e.exec(ctx, func() {
		room, ok := e.registry.Get(model.NormalizeRoomCode(rawCode))
		if !ok {
			result = model.ErrRoomNotFound
			return
		}
		snap = room.Snapshot()
	})
	if err != nil {
		return model.RoomSnapshot{}, err
	}
	return snap, result
}

// Rooms lists every live room
func (e *Engine) Rooms(ctx context.Context) ([]model.RoomSummary, error) {
	var rooms []model.RoomSummary
	if err := e.exec(ctx, func() { rooms = e.registry.Rooms() }); err != nil {
		return nil, err
	}
	return rooms, nil
}

// NewCode picks a code no live room is using
func (e *Engine) NewCode(ctx context.Context) (model.RoomCode, error) {
	var (
		code   model.RoomCode
		result error
	)
	if err := e.exec(ctx, func() { code, result = e.registry.NewCode() }); err != nil {
		return "", err
	}
	return code, result
}

func (e *Engine) handle(a Action) error {
	var err error
	switch a.Kind {
	case KindJoin:
		err = e.join(a)
	case KindBuzz:
		err = e.buzz(a)
	case KindStartRound:
		_, err = e.publishAfter(e.rounds.Start(a.Conn, a.Room))
	case KindStopRound:
		_, err = e.publishAfter(e.rounds.Stop(a.Conn, a.Room))
	case KindReset:
		err = e.reset(a)
	case KindDisconnect:
		e.leave(a.Conn)
	default:
		err = fmt.Errorf("%w: unknown action %q", model.ErrInvalidRequest, a.Kind)
	}

	if err != nil {
		e.logger.Debug("action rejected",
			slog.String("action", string(a.Kind)),
			slog.String("room", a.Room),
			slog.Any("error", err))
		e.broadcaster.SendError(a.Conn, err)
	}
	return err
}

func (e *Engine) join(a Action) error {
	room, err := e.sessions.Join(a.Conn, a.Room, a.Name, a.Role)
	if err != nil {
		return err
	}
	e.broadcaster.Subscribe(room.Code, a.Conn)
	e.broadcaster.PublishSnapshot(room.Code)
	return nil
}

func (e *Engine) buzz(a Action) error {
	event, recorded, err := e.ledger.RecordBuzz(a.Conn, a.Room)
	if err != nil || !recorded {
		return err
	}
	code := model.NormalizeRoomCode(a.Room)
	room, _ := e.registry.Get(code)
	e.broadcaster.PublishBuzz(code, room.Buzzes[0], event)
	e.broadcaster.PublishSnapshot(code)
	e.broadcaster.Acknowledge(a.Conn, room.Buzzes[0], event)
	return nil
}

func (e *Engine) reset(a Action) error {
	room, summary, err := e.rounds.Reset(a.Conn, a.Room)
	if err != nil {
		return err
	}
	e.broadcaster.PublishReset(room.Code)
	e.broadcaster.PublishSnapshot(room.Code)
	if summary != nil {
		e.archiver.Archive(*summary)
	}
	return nil
}

func (e *Engine) publishAfter(room *model.Room, err error) (*model.Room, error) {
	if err != nil {
		return nil, err
	}
	e.broadcaster.PublishSnapshot(room.Code)
	return room, nil
}

func (e *Engine) leave(id model.ConnectionID) {
	for _, room := range e.sessions.Leave(id) {
		e.broadcaster.PublishSnapshot(room.Code)
		e.reap(room)
	}
}

// reap deletes an empty room now, or after the grace period
func (e *Engine) reap(room *model.Room) {
	if !room.IsEmpty() {
		return
	}
	if e.cfg.GracePeriod <= 0 {
		e.delete(room.Code)
		return
	}

	e.vacancies++
	room.Vacancy = e.vacancies
	code, vacancy := room.Code, room.Vacancy
	e.logger.Info("room empty, deletion scheduled",
		slog.String("room", string(code)),
		slog.Duration("grace_period", e.cfg.GracePeriod))

	e.clock.AfterFunc(e.cfg.GracePeriod, func() {
		_ = e.exec(context.Background(), func() { e.expire(code, vacancy) })
	})
}

// expire deletes the room if it is still the same vacancy that scheduled it
func (e *Engine) expire(code model.RoomCode, vacancy uint64) {
	room, ok := e.registry.Get(code)
	if !ok || room.Vacancy != vacancy || !room.IsEmpty() {
		return
	}
	e.delete(code)
}

func (e *Engine) delete(code model.RoomCode) {
	if !e.registry.DeleteIfEmpty(code) {
		return
	}
	e.broadcaster.Disband(code)
	e.archiver.Forget(code)
}
