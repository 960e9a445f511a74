package factory

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/protocol"
)

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	server *httptest.Server
	ctx    context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp(Config{HistoryLimit: 10, Version: "test"})
	s.server = httptest.NewServer(s.app.Router)
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.app.Hub.Close()
	s.server.Close()
	s.Require().NoError(s.app.Close())
}

func (s *IntegrationSuite) connect(room, name, role string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })

	s.Equal(protocol.TypeWelcome, s.next(conn).Type)
	s.Require().NoError(conn.WriteJSON(protocol.Request{Type: protocol.TypeJoinRoom, Room: room, Name: name, Role: role}))
	s.Equal(protocol.TypeRoomUpdate, s.next(conn).Type)
	return conn
}

func (s *IntegrationSuite) next(conn *websocket.Conn) protocol.Envelope {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var env protocol.Envelope
	s.Require().NoError(conn.ReadJSON(&env))
	return env
}

// nextOf skips signals until one of the given type arrives
func (s *IntegrationSuite) nextOf(conn *websocket.Conn, msgType string) protocol.Envelope {
	for {
		env := s.next(conn)
		if env.Type == msgType {
			return env
		}
	}
}

func (s *IntegrationSuite) act(conn *websocket.Conn, msgType, room string) {
	s.Require().NoError(conn.WriteJSON(protocol.Request{Type: msgType, Room: room}))
}

// Test: a full round is archived on reset and readable from history
func (s *IntegrationSuite) TestRoundIsArchivedOnReset() {
	host := s.connect("quiz", "Host", "HOST")
	p1 := s.connect("QUIZ", "Alice", "PLAYER")
	p2 := s.connect("Quiz", "Bob", "PLAYER")

	s.act(host, protocol.TypeStartRound, "QUIZ")
	s.nextOf(p2, protocol.TypeRoomUpdate)

	// Each player waits for its own confirmation; p1 also sees Bob's buzzed
	s.act(p2, protocol.TypeBuzz, "QUIZ")
	s.nextOf(p2, protocol.TypeBuzzAccepted)
	s.app.MockClock.Advance(250 * time.Millisecond)
	s.act(p1, protocol.TypeBuzz, "QUIZ")
	accepted := s.nextOf(p1, protocol.TypeBuzzAccepted)
	var mine protocol.Buzz
	s.Require().NoError(json.Unmarshal(accepted.Payload, &mine))
	s.Equal("Alice", mine.PlayerName)
	s.Equal(2, mine.Rank)

	s.act(host, protocol.TypeReset, "QUIZ")
	s.nextOf(host, protocol.TypeResetBuzzer)

	s.Eventually(func() bool {
		rounds, err := s.app.Archiver.List(s.ctx, "QUIZ")
		return err == nil && len(rounds) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rounds, err := s.app.Archiver.List(s.ctx, "QUIZ")
	s.Require().NoError(err)
	s.Require().Len(rounds[0].Buzzes, 2)
	s.Equal("Bob", rounds[0].Buzzes[0].DisplayName)
	s.Equal("Alice", rounds[0].Buzzes[1].DisplayName)
	s.Equal(250*time.Millisecond, model.Offset(rounds[0].Buzzes, rounds[0].Buzzes[1]))
}

// Test: the last member leaving deletes the room and purges its history
func (s *IntegrationSuite) TestAbandonedRoomLosesHistory() {
	host := s.connect("ABC", "Host", "HOST")
	p1 := s.connect("ABC", "Alice", "PLAYER")

	s.act(host, protocol.TypeStartRound, "ABC")
	s.nextOf(p1, protocol.TypeRoomUpdate)
	s.act(p1, protocol.TypeBuzz, "ABC")
	s.nextOf(host, protocol.TypeBuzzed)
	s.act(host, protocol.TypeReset, "ABC")
	s.nextOf(host, protocol.TypeResetBuzzer)

	s.Eventually(func() bool {
		rounds, _ := s.app.MemoryStore.ListRounds(s.ctx, "ABC")
		return len(rounds) == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.Require().NoError(p1.Close())
	s.Require().NoError(host.Close())

	s.Eventually(func() bool {
		_, err := s.app.Engine.Snapshot(s.ctx, "ABC")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	s.Eventually(func() bool {
		rounds, _ := s.app.MemoryStore.ListRounds(s.ctx, "ABC")
		return len(rounds) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// Test: identities handed to connections never reach clients
func (s *IntegrationSuite) TestIdentitiesStayServerSide() {
	host := s.connect("ABC", "Host", "HOST")
	p1 := s.connect("ABC", "Alice", "PLAYER")

	s.act(host, protocol.TypeStartRound, "ABC")
	s.nextOf(p1, protocol.TypeRoomUpdate)
	s.act(p1, protocol.TypeBuzz, "ABC")

	env := s.nextOf(host, protocol.TypeBuzzed)
	s.NotContains(string(env.Payload), "conn-")

	var buzz map[string]any
	s.Require().NoError(json.Unmarshal(env.Payload, &buzz))
	s.Equal("Alice", buzz["playerName"])
}
