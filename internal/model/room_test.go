package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoomCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected RoomCode
	}{
		{"lower case", "abc", "ABC"},
		{"mixed case", "aBc1", "ABC1"},
		{"surrounding space", "  xyz ", "XYZ"},
		{"empty", "", ""},
		{"only space", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeRoomCode(tt.input))
		})
	}
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("host")
	assert.True(t, ok)
	assert.Equal(t, RoleHost, role)

	role, ok = ParseRole("PLAYER")
	assert.True(t, ok)
	assert.Equal(t, RolePlayer, role)

	role, ok = ParseRole("  Player ")
	assert.True(t, ok)
	assert.Equal(t, RolePlayer, role)

	// No fallback to player for unknown roles
	_, ok = ParseRole("HOTS")
	assert.False(t, ok)

	_, ok = ParseRole("spectator")
	assert.False(t, ok)

	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestNewRoomStartsLockedAndEmpty(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	room := NewRoom("ABC", now)

	assert.True(t, room.Locked)
	assert.True(t, room.IsEmpty())
	assert.False(t, room.HasHost())
	assert.Empty(t, room.Buzzes)
	assert.Equal(t, now, room.CreatedAt)
}

func TestRoomPlayerOrderIsJoinOrder(t *testing.T) {
	room := NewRoom("ABC", time.Now())
	room.UpsertPlayer("c1", PlayerInfo{DisplayName: "Ann"})
	room.UpsertPlayer("c2", PlayerInfo{DisplayName: "Bob"})
	room.UpsertPlayer("c3", PlayerInfo{DisplayName: "Cat"})

	// Renaming keeps the original position
	room.UpsertPlayer("c1", PlayerInfo{DisplayName: "Annie"})
	assert.Equal(t, []string{"Annie", "Bob", "Cat"}, room.PlayerNames())

	require.True(t, room.RemovePlayer("c2"))
	assert.False(t, room.RemovePlayer("c2"))
	assert.Equal(t, []string{"Annie", "Cat"}, room.PlayerNames())
}

func TestRoomContains(t *testing.T) {
	room := NewRoom("ABC", time.Now())
	room.Host = "h"
	room.UpsertPlayer("p", PlayerInfo{DisplayName: "P"})

	assert.True(t, room.Contains("h"))
	assert.True(t, room.Contains("p"))
	assert.False(t, room.Contains("x"))
	assert.False(t, room.IsEmpty())
}

func TestSnapshotIsACopy(t *testing.T) {
	room := NewRoom("ABC", time.Now())
	room.Host = "h"
	room.UpsertPlayer("p", PlayerInfo{DisplayName: "P"})
	room.Buzzes = append(room.Buzzes, BuzzEvent{PlayerID: "p", DisplayName: "P", Rank: 1})

	snap := room.Snapshot()
	room.Buzzes[0].DisplayName = "changed"
	room.Buzzes = room.Buzzes[:0]

	require.Len(t, snap.Buzzes, 1)
	assert.Equal(t, "P", snap.Buzzes[0].DisplayName)
	assert.Equal(t, []string{"P"}, snap.Players)
	assert.True(t, snap.HasHost)
	assert.True(t, snap.Locked)
	assert.Equal(t, RoomCode("ABC"), snap.Code)
}

func TestHasBuzzed(t *testing.T) {
	room := NewRoom("ABC", time.Now())
	room.Buzzes = append(room.Buzzes, BuzzEvent{PlayerID: "p1", Rank: 1})

	assert.True(t, room.HasBuzzed("p1"))
	assert.False(t, room.HasBuzzed("p2"))
}

func TestOffset(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	buzzes := []BuzzEvent{
		{Timestamp: base},
		{Timestamp: base.Add(150 * time.Millisecond)},
	}

	assert.Equal(t, time.Duration(0), Offset(buzzes, buzzes[0]))
	assert.Equal(t, 150*time.Millisecond, Offset(buzzes, buzzes[1]))
	assert.Equal(t, time.Duration(0), Offset(nil, buzzes[1]))
}
