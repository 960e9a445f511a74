package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/buzzer/internal/dependencies/mocks"
	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.registry = New(s.clock, s.random, testutil.NopLogger())
}

func (s *RegistrySuite) TestGetOrCreateCreatesLockedEmptyRoom() {
	room := s.registry.GetOrCreate("ABC")

	s.Equal(model.RoomCode("ABC"), room.Code)
	s.True(room.Locked)
	s.False(room.HasHost())
	s.Empty(room.Players)
	s.NotNil(room.Buzzes)
	s.Empty(room.Buzzes)
	s.Equal(s.clock.Now(), room.CreatedAt)
}

func (s *RegistrySuite) TestGetOrCreateReturnsExistingRoom() {
	first := s.registry.GetOrCreate("ABC")
	first.Locked = false

	second := s.registry.GetOrCreate("ABC")
	s.Same(first, second)
	s.False(second.Locked)
	s.Equal(1, s.registry.Len())
}

func (s *RegistrySuite) TestGetAbsentRoom() {
	room, ok := s.registry.Get("NOPE")
	s.False(ok)
	s.Nil(room)
}

func (s *RegistrySuite) TestDeleteIfEmptyRemovesEmptyRoom() {
	s.registry.GetOrCreate("ABC")

	s.True(s.registry.DeleteIfEmpty("ABC"))

	_, ok := s.registry.Get("ABC")
	s.False(ok)
}

func (s *RegistrySuite) TestDeleteIfEmptyKeepsRoomWithHost() {
	room := s.registry.GetOrCreate("ABC")
	room.Host = "host-1"

	s.False(s.registry.DeleteIfEmpty("ABC"))
	_, ok := s.registry.Get("ABC")
	s.True(ok)
}

func (s *RegistrySuite) TestDeleteIfEmptyKeepsRoomWithPlayers() {
	room := s.registry.GetOrCreate("ABC")
	room.UpsertPlayer("p1", model.PlayerInfo{DisplayName: "Alice"})

	s.False(s.registry.DeleteIfEmpty("ABC"))
}

func (s *RegistrySuite) TestDeleteIfEmptyAbsentRoom() {
	s.False(s.registry.DeleteIfEmpty("NOPE"))
}

func (s *RegistrySuite) TestRecreatedRoomIsFresh() {
	room := s.registry.GetOrCreate("ABC")
	room.Locked = false
	room.Buzzes = append(room.Buzzes, model.BuzzEvent{PlayerID: "p1", Rank: 1})
	s.registry.DeleteIfEmpty("ABC")

	fresh := s.registry.GetOrCreate("ABC")
	s.NotSame(room, fresh)
	s.True(fresh.Locked)
	s.Empty(fresh.Buzzes)
}

func (s *RegistrySuite) TestRoomsSortedByCode() {
	b := s.registry.GetOrCreate("BBB")
	b.Host = "host-1"
	b.UpsertPlayer("p1", model.PlayerInfo{DisplayName: "Alice"})
	s.registry.GetOrCreate("AAA")

	rooms := s.registry.Rooms()
	s.Require().Len(rooms, 2)
	s.Equal(model.RoomCode("AAA"), rooms[0].Code)
	s.Equal(model.RoomCode("BBB"), rooms[1].Code)
	s.True(rooms[1].HasHost)
	s.Equal(1, rooms[1].PlayerCount)
	s.True(rooms[1].Locked)
	s.Equal(s.clock.Now(), rooms[1].UpdatedAt)
}

func (s *RegistrySuite) TestNewCodeSkipsLiveRooms() {
	s.registry.GetOrCreate("TAKEN")
	s.random.QueueString("TAKEN", "free")

	code, err := s.registry.NewCode()
	s.Require().NoError(err)
	s.Equal(model.RoomCode("FREE"), code)
}

func (s *RegistrySuite) TestNewCodeGivesUp() {
	// The mock yields empty strings once its queue is drained
	_, err := s.registry.NewCode()
	s.ErrorIs(err, ErrNoFreeCode)
}

func (s *RegistrySuite) TestNewCodeRequestsCodeLength() {
	s.random.QueueString("K7QP")

	_, err := s.registry.NewCode()
	s.Require().NoError(err)
	s.Equal([]int{CodeLength}, s.random.Requested())
}

func (s *RegistrySuite) TestLifecycleIsLogged() {
	logger, logs := testutil.CaptureLogger()
	registry := New(s.clock, s.random, logger)

	registry.GetOrCreate("ABC")
	s.clock.Advance(time.Minute)
	registry.DeleteIfEmpty("ABC")

	s.Equal([]string{"room created", "room deleted"}, logs.Messages())
	deleted := logs.Entries()[1]
	s.Equal("ABC", deleted["room"])
	s.Equal("registry", deleted["component"])
	s.EqualValues(time.Minute, deleted["lifetime"])
}
