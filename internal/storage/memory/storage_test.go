package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/buzzer/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New(3)
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) summary(code model.RoomCode, round int) *model.RoundSummary {
	return &model.RoundSummary{
		Room:  code,
		Round: round,
		Buzzes: []model.BuzzEvent{
			{PlayerID: "p1", DisplayName: "Alice", Timestamp: s.now, Rank: 1},
		},
		OpenedAt: s.now.Add(-time.Minute),
		ClosedAt: s.now,
	}
}

func (s *StorageSuite) TestListUnknownRoomIsEmpty() {
	rounds, err := s.storage.ListRounds(s.ctx, "NOPE")
	s.Require().NoError(err)
	s.NotNil(rounds)
	s.Empty(rounds)
}

func (s *StorageSuite) TestAppendAndListMostRecentFirst() {
	s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("ABC", 1)))
	s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("ABC", 2)))
	s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("XYZ", 1)))

	rounds, err := s.storage.ListRounds(s.ctx, "ABC")
	s.Require().NoError(err)
	s.Require().Len(rounds, 2)
	s.Equal(2, rounds[0].Round)
	s.Equal(1, rounds[1].Round)
	s.Equal("Alice", rounds[0].Buzzes[0].DisplayName)
}

func (s *StorageSuite) TestAppendEvictsBeyondLimit() {
	for i := 1; i <= 5; i++ {
		s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("ABC", i)))
	}

	rounds, err := s.storage.ListRounds(s.ctx, "ABC")
	s.Require().NoError(err)
	s.Require().Len(rounds, 3)
	s.Equal(5, rounds[0].Round)
	s.Equal(3, rounds[2].Round)
}

func (s *StorageSuite) TestStoredRoundIsIsolatedFromCaller() {
	summary := s.summary("ABC", 1)
	s.Require().NoError(s.storage.AppendRound(s.ctx, summary))
	summary.Buzzes[0].DisplayName = "Mallory"

	rounds, err := s.storage.ListRounds(s.ctx, "ABC")
	s.Require().NoError(err)
	s.Equal("Alice", rounds[0].Buzzes[0].DisplayName)
}

func (s *StorageSuite) TestDeleteRounds() {
	s.Require().NoError(s.storage.AppendRound(s.ctx, s.summary("ABC", 1)))
	s.Require().NoError(s.storage.DeleteRounds(s.ctx, "ABC"))

	rounds, err := s.storage.ListRounds(s.ctx, "ABC")
	s.Require().NoError(err)
	s.Empty(rounds)

	// Deleting again is harmless
	s.NoError(s.storage.DeleteRounds(s.ctx, "ABC"))
}

func (s *StorageSuite) TestDefaultLimit() {
	s.Equal(DefaultLimit, New(0).limit)
}
