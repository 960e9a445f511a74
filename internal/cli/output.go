package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mcoot/buzzer/internal/api/response"
	"github.com/mcoot/buzzer/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errOut, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.out, string(data))
	} else {
		_, _ = fmt.Fprintln(o.out, msg)
	}
}

// PrintSignal outputs one websocket signal. JSON output is one line per signal.
func (o *Output) PrintSignal(env protocol.Envelope) {
	if o.format == "json" {
		data, _ := json.Marshal(env)
		_, _ = fmt.Fprintln(o.out, string(data))
		return
	}

	switch env.Type {
	case protocol.TypeRoomUpdate:
		var u protocol.RoomUpdate
		if json.Unmarshal(env.Payload, &u) == nil {
			o.printRoomUpdate(u)
			return
		}
	case protocol.TypeBuzzed, protocol.TypeBuzzAccepted:
		var b protocol.Buzz
		if json.Unmarshal(env.Payload, &b) == nil {
			o.printf("BUZZ #%d %s (+%dms)\n", b.Rank, b.PlayerName, b.OffsetMs)
			return
		}
	case protocol.TypeResetBuzzer:
		o.printf("Buzzers reset\n")
		return
	case protocol.TypeError:
		var e protocol.Error
		if json.Unmarshal(env.Payload, &e) == nil {
			o.printf("Error: %s (%s)\n", e.Message, e.Code)
			return
		}
	}
	o.printf("%s: %s\n", env.Type, string(env.Payload))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.out, format, args...)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		o.printHealth(v)
	case response.Room:
		o.printRoom(v)
	case response.RoomList:
		o.printRoomList(v)
	case response.NewRoomCode:
		o.printNewRoomCode(v)
	case response.History:
		o.printHistory(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printHealth(h response.Health) {
	o.printf("Status: %s\n", h.Status)
	if h.Version != "" {
		o.printf("Version: %s\n", h.Version)
	}
}

func lockState(locked bool) string {
	if locked {
		return "locked"
	}
	return "open"
}

func (o *Output) printRoom(r response.Room) {
	o.printf("Room: %s\n", r.Code)
	o.printf("Buzzers: %s\n", lockState(r.Locked))
	o.printf("Host: %t\n", r.HasHost)
	o.printf("Players (%d): %s\n", len(r.Players), strings.Join(r.Players, ", "))
	o.printBuzzes(r.Buzzes)
}

func (o *Output) printBuzzes(buzzes []response.Buzz) {
	if len(buzzes) == 0 {
		o.printf("No buzzes\n")
		return
	}
	o.printf("Buzzes:\n")
	for _, b := range buzzes {
		o.printf("  %d. %s (+%dms)\n", b.Rank, b.PlayerName, b.OffsetMs)
	}
}

func (o *Output) printRoomList(l response.RoomList) {
	if len(l.Rooms) == 0 {
		o.printf("No rooms\n")
		return
	}
	for _, r := range l.Rooms {
		o.printf("%s  players=%d buzzes=%d host=%t %s\n",
			r.Code, r.PlayerCount, r.BuzzCount, r.HasHost, lockState(r.Locked))
	}
}

func (o *Output) printNewRoomCode(c response.NewRoomCode) {
	o.printf("Room code: %s\n", c.Code)
	o.printf("Join link: %s\n", c.JoinURL)
}

func (o *Output) printHistory(h response.History) {
	if len(h.Rounds) == 0 {
		o.printf("No rounds recorded for %s\n", h.Code)
		return
	}
	for _, r := range h.Rounds {
		o.printf("Round %d (%s, %s)\n", r.Round,
			r.ClosedAt.Format(time.DateTime), r.ClosedAt.Sub(r.OpenedAt).Round(time.Millisecond))
		for _, b := range r.Buzzes {
			o.printf("  %d. %s (+%dms)\n", b.Rank, b.PlayerName, b.OffsetMs)
		}
	}
}

func (o *Output) printRoomUpdate(u protocol.RoomUpdate) {
	host := "no host"
	if u.HasHost {
		host = "host present"
	}
	o.printf("[%s] %s, %s, players: %s\n",
		u.RoomCode, lockState(u.Locked), host, strings.Join(u.Players, ", "))
	for _, b := range u.Buzzes {
		o.printf("  %d. %s (+%dms)\n", b.Rank, b.PlayerName, b.OffsetMs)
	}
}
