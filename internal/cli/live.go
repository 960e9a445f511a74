package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/buzzer/internal/model"
	"github.com/mcoot/buzzer/internal/protocol"
)

func newWatchCmd() *cobra.Command {
	var (
		name  string
		role  string
		count int
	)

	cmd := &cobra.Command{
		Use:   "watch <room>",
		Short: "Join a room and stream its signals",
		Long: `Join a room over the websocket and print every signal it broadcasts.

Joining as HOST takes over the room's host slot. Press Ctrl+C to leave.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := model.ParseRole(role); !ok {
				return fmt.Errorf("invalid role %q: must be HOST or PLAYER", role)
			}

			session, err := client.Dial(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()
			logf(cmd, "connected to server %s", session.Version)

			update, err := session.Join(args[0], name, role)
			if err != nil {
				return err
			}
			out := output(cmd)
			out.PrintSignal(envelopeOf(protocol.TypeRoomUpdate, update))

			// Unblock the read loop on Ctrl+C
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-cmd.Context().Done():
					_ = session.Close()
				case <-done:
				}
			}()

			for seen := 1; count <= 0 || seen < count; seen++ {
				env, err := session.Next(time.Time{})
				if err != nil {
					if cmd.Context().Err() != nil {
						logf(cmd, "disconnected")
						return nil
					}
					return err
				}
				out.PrintSignal(env)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "watcher", "Display name")
	cmd.Flags().StringVarP(&role, "role", "r", string(model.RolePlayer), "Role: HOST or PLAYER")
	cmd.Flags().IntVarP(&count, "count", "c", 0, "Exit after this many signals (0: run until interrupted)")

	return cmd
}

func newBuzzCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "buzz <room>",
		Short: "Join a room as a player and buzz once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.Dial(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			if _, err := session.Join(args[0], name, string(model.RolePlayer)); err != nil {
				return err
			}
			logf(cmd, "joined %s as %s", args[0], name)

			if err := session.Send(protocol.Request{Type: protocol.TypeBuzz, Room: args[0]}); err != nil {
				return err
			}

			env, err := session.Await(func(env protocol.Envelope) (bool, error) {
				return env.Type == protocol.TypeBuzzAccepted, nil
			})
			if err != nil {
				return err
			}

			output(cmd).PrintSignal(env)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// hostActions maps host subcommands to the action sent and the signal that
// confirms it
var hostActions = map[string]struct {
	request string
	done    func(protocol.Envelope) (bool, error)
}{
	"start": {protocol.TypeStartRound, lockedIs(false)},
	"stop":  {protocol.TypeStopRound, lockedIs(true)},
	"reset": {protocol.TypeReset, func(env protocol.Envelope) (bool, error) {
		return env.Type == protocol.TypeResetBuzzer, nil
	}},
}

func lockedIs(locked bool) func(protocol.Envelope) (bool, error) {
	return func(env protocol.Envelope) (bool, error) {
		if env.Type != protocol.TypeRoomUpdate {
			return false, nil
		}
		var u protocol.RoomUpdate
		if err := json.Unmarshal(env.Payload, &u); err != nil {
			return false, err
		}
		return u.Locked == locked, nil
	}
}

func newHostCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "host <room> start|stop|reset...",
		Short: "Take the host slot of a room and run round actions",
		Long: `Join a room as its host and run each action in order, waiting for the
server to confirm it before the next.

  start  open the buzzers
  stop   lock the buzzers
  reset  clear the buzzes and lock the buzzers

The host slot is released when the command exits.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, actions := args[0], args[1:]
			for _, a := range actions {
				if _, ok := hostActions[a]; !ok {
					return fmt.Errorf("unknown host action %q: must be start, stop or reset", a)
				}
			}

			session, err := client.Dial(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			if _, err := session.Join(room, name, string(model.RoleHost)); err != nil {
				return err
			}
			logf(cmd, "hosting %s", room)

			out := output(cmd)
			for _, a := range actions {
				action := hostActions[a]
				if err := session.Send(protocol.Request{Type: action.request, Room: room}); err != nil {
					return err
				}
				env, err := session.Await(action.done)
				if err != nil {
					return fmt.Errorf("%s: %w", a, err)
				}
				out.PrintSignal(env)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "Host", "Display name")

	return cmd
}

func envelopeOf(msgType string, payload any) protocol.Envelope {
	data, _ := json.Marshal(payload)
	return protocol.Envelope{Type: msgType, Payload: data}
}
