package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/buzzer/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.HistoryTTL = time.Hour
	cfg.HistoryLimit = 3

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) summary(code model.RoomCode, round int) *model.RoundSummary {
	return &model.RoundSummary{
		Room:  code,
		Round: round,
		Buzzes: []model.BuzzEvent{
			{PlayerID: "p1", DisplayName: "Alice", Timestamp: s.now, Rank: 1},
			{PlayerID: "p2", DisplayName: "Bob", Timestamp: s.now.Add(40 * time.Millisecond), Rank: 2},
		},
		OpenedAt: s.now.Add(-time.Minute),
		ClosedAt: s.now.Add(time.Second),
	}
}

func (s *StorageSuite) TestAppendAndList() {
	s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("ABC", 1)))
	s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("ABC", 2)))

	rounds, err := s.storage.ListRounds(s.ctx, "ABC")
	s.Require().NoError(err)
	s.Require().Len(rounds, 2)
	s.Equal(2, rounds[0].Round)
	s.Equal(1, rounds[1].Round)

	s.Require().Len(rounds[0].Buzzes, 2)
	s.Equal("Bob", rounds[0].Buzzes[1].DisplayName)
	s.Equal(2, rounds[0].Buzzes[1].Rank)
	s.True(s.now.Add(40 * time.Millisecond).Equal(rounds[0].Buzzes[1].Timestamp))
}

func (s *StorageSuite) TestListUnknownRoomIsEmpty() {
	rounds, err := s.storage.ListRounds(s.ctx, "NOPE")
	s.Require().NoError(err)
	s.Empty(rounds)
}

func (s *StorageSuite) TestAppendTrimsToLimit() {
	for i := 1; i <= 5; i++ {
		s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("ABC", i)))
	}

	rounds, err := s.storage.ListRounds(s.ctx, "ABC")
	s.Require().NoError(err)
	s.Require().Len(rounds, 3)
	s.Equal(5, rounds[0].Round)
	s.Equal(3, rounds[2].Round)
}

func (s *StorageSuite) TestAppendSetsTTL() {
	s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("ABC", 1)))

	s.Equal(time.Hour, s.mini.TTL(roundsKey("ABC")))

	s.mini.FastForward(2 * time.Hour)
	rounds, err := s.storage.ListRounds(s.ctx, "ABC")
	s.Require().NoError(err)
	s.Empty(rounds)
}

func (s *StorageSuite) TestDeleteRounds() {
	s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("ABC", 1)))
	s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("XYZ", 1)))

	s.Require().NoError(s.storage.DeleteRounds(s.ctx, "ABC"))

	s.False(s.mini.Exists(roundsKey("ABC")))
	s.True(s.mini.Exists(roundsKey("XYZ")))
}

func (s *StorageSuite) TestKeyFormat() {
	s.Equal("buzzer:rounds:ABC", roundsKey("ABC"))
}
