package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/buzzer/internal/dependencies/clock"
	"github.com/mcoot/buzzer/internal/dependencies/mocks"
	"github.com/mcoot/buzzer/internal/engine"
	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/protocol"
	"github.com/mcoot/buzzer/internal/services/broadcast"
	"github.com/mcoot/buzzer/internal/services/ledger"
	"github.com/mcoot/buzzer/internal/services/registry"
	"github.com/mcoot/buzzer/internal/services/round"
	"github.com/mcoot/buzzer/internal/services/session"
	"github.com/mcoot/buzzer/internal/testutil"
)

type nopArchiver struct{}

func (nopArchiver) Archive(model.RoundSummary) {}
func (nopArchiver) Forget(model.RoomCode)      {}

type HandlerSuite struct {
	suite.Suite
	hub    *Hub
	engine *engine.Engine
	server *httptest.Server
	url    string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := clock.New()
	reg := registry.New(clk, mocks.NewMockRandom(), logger)
	s.hub = NewHub(logger)
	s.engine = engine.New(
		reg,
		session.NewManager(reg, clk, logger),
		ledger.New(reg, clk, logger),
		round.NewController(reg, clk, logger),
		broadcast.NewCoordinator(reg, s.hub, logger),
		nopArchiver{},
		clk,
		engine.Config{},
		logger,
	)
	go s.engine.Run()

	handler := NewHandler(s.hub, s.engine, mocks.NewSequenceIdentity(), HandlerConfig{Version: "test"}, logger)
	s.server = httptest.NewServer(handler)
	s.url = "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *HandlerSuite) TearDownTest() {
	s.hub.Close()
	s.server.Close()
	s.engine.Close()
}

func (s *HandlerSuite) dial() *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })

	env := s.read(conn)
	s.Require().Equal(protocol.TypeWelcome, env.Type)
	return conn
}

func (s *HandlerSuite) send(conn *websocket.Conn, req protocol.Request) {
	s.Require().NoError(conn.WriteJSON(req))
}

func (s *HandlerSuite) read(conn *websocket.Conn) protocol.Envelope {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var env protocol.Envelope
	s.Require().NoError(conn.ReadJSON(&env))
	return env
}

func (s *HandlerSuite) readUpdate(conn *websocket.Conn) protocol.RoomUpdate {
	env := s.read(conn)
	s.Require().Equal(protocol.TypeRoomUpdate, env.Type)
	var update protocol.RoomUpdate
	s.Require().NoError(json.Unmarshal(env.Payload, &update))
	return update
}

func (s *HandlerSuite) readError(conn *websocket.Conn) protocol.Error {
	env := s.read(conn)
	s.Require().Equal(protocol.TypeError, env.Type)
	var e protocol.Error
	s.Require().NoError(json.Unmarshal(env.Payload, &e))
	return e
}

func (s *HandlerSuite) TestWelcomeCarriesVersion() {
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	s.Require().NoError(err)
	defer conn.Close()

	env := s.read(conn)
	s.Equal(protocol.TypeWelcome, env.Type)
	s.JSONEq(`{"version":"test"}`, string(env.Payload))
}

func (s *HandlerSuite) TestBuzzRound() {
	host := s.dial()
	s.send(host, protocol.Request{Type: protocol.TypeJoinRoom, Room: "abc", Name: "HostUser", Role: "HOST"})
	update := s.readUpdate(host)
	s.Equal("ABC", update.RoomCode)
	s.True(update.Locked)
	s.True(update.HasHost)

	p1 := s.dial()
	s.send(p1, protocol.Request{Type: protocol.TypeJoinRoom, Room: "ABC", Name: "Player1", Role: "PLAYER"})
	s.Equal([]string{"Player1"}, s.readUpdate(p1).Players)
	s.Equal([]string{"Player1"}, s.readUpdate(host).Players)

	// Locked: only the buzzing player hears about it
	s.send(p1, protocol.Request{Type: protocol.TypeBuzz, Room: "ABC"})
	s.Equal(protocol.CodeLocked, s.readError(p1).Code)

	s.send(host, protocol.Request{Type: protocol.TypeStartRound, Room: "ABC"})
	s.False(s.readUpdate(host).Locked)
	s.False(s.readUpdate(p1).Locked)

	s.send(p1, protocol.Request{Type: protocol.TypeBuzz, Room: "ABC"})
	env := s.read(host)
	s.Require().Equal(protocol.TypeBuzzed, env.Type)
	var buzz protocol.Buzz
	s.Require().NoError(json.Unmarshal(env.Payload, &buzz))
	s.Equal("Player1", buzz.PlayerName)
	s.Equal(1, buzz.Rank)

	update = s.readUpdate(host)
	s.Require().Len(update.Buzzes, 1)
	s.Equal(protocol.TypeBuzzed, s.read(p1).Type)
	s.readUpdate(p1)
	s.Equal(protocol.TypeBuzzAccepted, s.read(p1).Type)

	s.send(host, protocol.Request{Type: protocol.TypeReset, Room: "ABC"})
	s.Equal(protocol.TypeResetBuzzer, s.read(p1).Type)
	update = s.readUpdate(p1)
	s.True(update.Locked)
	s.Empty(update.Buzzes)
}

func (s *HandlerSuite) TestMalformedFrameReportsInvalidRequest() {
	conn := s.dial()
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	s.Equal(protocol.CodeInvalidRequest, s.readError(conn).Code)

	s.send(conn, protocol.Request{Type: "dance", Room: "ABC"})
	s.Equal(protocol.CodeInvalidRequest, s.readError(conn).Code)

	// The connection survives rejected frames
	s.send(conn, protocol.Request{Type: protocol.TypeJoinRoom, Room: "ABC", Name: "Alice", Role: "player"})
	s.Equal([]string{"Alice"}, s.readUpdate(conn).Players)
}

func (s *HandlerSuite) TestDisconnectLeavesRoom() {
	host := s.dial()
	s.send(host, protocol.Request{Type: protocol.TypeJoinRoom, Room: "ABC", Name: "Host", Role: "HOST"})
	s.readUpdate(host)

	p1 := s.dial()
	s.send(p1, protocol.Request{Type: protocol.TypeJoinRoom, Room: "ABC", Name: "Player1", Role: "PLAYER"})
	s.readUpdate(p1)
	s.Equal([]string{"Player1"}, s.readUpdate(host).Players)

	s.Require().NoError(p1.Close())

	update := s.readUpdate(host)
	s.Empty(update.Players)
	s.True(update.HasHost)

	s.Require().NoError(host.Close())
	s.Eventually(func() bool {
		_, err := s.engine.Snapshot(context.Background(), "ABC")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
	s.Eventually(func() bool { return s.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
