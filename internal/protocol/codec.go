package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcoot/buzzer/internal/model"
)

// DecodeRequest parses a client frame. Unknown fields are ignored; a missing
// or unknown type is an invalid request.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: malformed message", model.ErrInvalidRequest)
	}
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" {
		return Request{}, fmt.Errorf("%w: message type is required", model.ErrInvalidRequest)
	}
	switch req.Type {
	case TypeJoinRoom, TypeBuzz, TypeStartRound, TypeStopRound, TypeReset:
	default:
		return Request{}, fmt.Errorf("%w: unknown message type %q", model.ErrInvalidRequest, req.Type)
	}
	return req, nil
}

// Encode wraps a payload in an envelope. A nil payload is omitted.
func Encode(msgType string, payload any) ([]byte, error) {
	env := Envelope{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
		env.Payload = data
	}
	return json.Marshal(env)
}

// EncodeRoomUpdate encodes a room_update signal
func EncodeRoomUpdate(s model.RoomSnapshot) ([]byte, error) {
	return Encode(TypeRoomUpdate, NewRoomUpdate(s))
}

// EncodeBuzzed encodes a buzzed signal for a freshly recorded entry
func EncodeBuzzed(first model.BuzzEvent, b model.BuzzEvent) ([]byte, error) {
	return Encode(TypeBuzzed, NewBuzz(first.Timestamp, b))
}

// EncodeBuzzAccepted encodes the private confirmation sent to the player whose buzz was recorded
func EncodeBuzzAccepted(first model.BuzzEvent, b model.BuzzEvent) ([]byte, error) {
	return Encode(TypeBuzzAccepted, NewBuzz(first.Timestamp, b))
}

// EncodeResetBuzzer encodes the payload-less reset signal
func EncodeResetBuzzer() ([]byte, error) {
	return Encode(TypeResetBuzzer, nil)
}

// EncodeWelcome encodes the connection greeting
func EncodeWelcome(version string) ([]byte, error) {
	return Encode(TypeWelcome, Welcome{Version: version})
}

// EncodeError encodes an error signal for err
func EncodeError(err error) ([]byte, error) {
	return Encode(TypeError, ToError(err))
}
