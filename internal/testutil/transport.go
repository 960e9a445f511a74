package testutil

import (
	"encoding/json"
	"sync"

	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/protocol"
)

// RecordingTransport keeps group membership in memory and records every frame
// delivered to each connection, in order.
type RecordingTransport struct {
	mu     sync.Mutex
	groups map[model.RoomCode]map[model.ConnectionID]bool
	frames map[model.ConnectionID][]protocol.Envelope
}

// NewRecordingTransport creates an empty RecordingTransport
func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{
		groups: make(map[model.RoomCode]map[model.ConnectionID]bool),
		frames: make(map[model.ConnectionID][]protocol.Envelope),
	}
}

func (t *RecordingTransport) JoinGroup(code model.RoomCode, id model.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	members, ok := t.groups[code]
	if !ok {
		members = make(map[model.ConnectionID]bool)
		t.groups[code] = members
	}
	members[id] = true
}

func (t *RecordingTransport) DropGroup(code model.RoomCode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.groups, code)
}

// Disconnect removes a connection from every group
func (t *RecordingTransport) Disconnect(id model.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, members := range t.groups {
		delete(members, id)
	}
}

func (t *RecordingTransport) SendToGroup(code model.RoomCode, frame []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.groups[code] {
		t.record(id, frame)
	}
}

func (t *RecordingTransport) SendTo(id model.ConnectionID, frame []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(id, frame)
}

func (t *RecordingTransport) record(id model.ConnectionID, frame []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		panic("recording transport got invalid frame: " + err.Error())
	}
	t.frames[id] = append(t.frames[id], env)
}

// Frames returns the envelopes delivered to a connection
func (t *RecordingTransport) Frames(id model.ConnectionID) []protocol.Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]protocol.Envelope(nil), t.frames[id]...)
}

// Types returns the signal types delivered to a connection
func (t *RecordingTransport) Types(id model.ConnectionID) []string {
	frames := t.Frames(id)
	types := make([]string, 0, len(frames))
	for _, f := range frames {
		types = append(types, f.Type)
	}
	return types
}

// LastUpdate decodes the most recent room_update delivered to a connection
func (t *RecordingTransport) LastUpdate(id model.ConnectionID) (protocol.RoomUpdate, bool) {
	frames := t.Frames(id)
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Type != protocol.TypeRoomUpdate {
			continue
		}
		var update protocol.RoomUpdate
		if err := json.Unmarshal(frames[i].Payload, &update); err != nil {
			return protocol.RoomUpdate{}, false
		}
		return update, true
	}
	return protocol.RoomUpdate{}, false
}

// LastError decodes the most recent error delivered to a connection
func (t *RecordingTransport) LastError(id model.ConnectionID) (protocol.Error, bool) {
	frames := t.Frames(id)
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Type != protocol.TypeError {
			continue
		}
		var e protocol.Error
		if err := json.Unmarshal(frames[i].Payload, &e); err != nil {
			return protocol.Error{}, false
		}
		return e, true
	}
	return protocol.Error{}, false
}

// Reset forgets every recorded frame, keeping group membership
func (t *RecordingTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = make(map[model.ConnectionID][]protocol.Envelope)
}
