package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/buzzer/internal/api/response"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room inspection commands",
	}

	cmd.AddCommand(newRoomNewCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomHistoryCmd())
	cmd.AddCommand(newRoomQRCmd())

	return cmd
}

func roomPath(code string, suffix string) string {
	return "/api/v1/rooms/" + url.PathEscape(code) + suffix
}

func newRoomNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Get an unused room code and its join link",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.NewRoomCode

			if err := client.Get(cmd.Context(), "/api/v1/rooms/new", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Show a room's players and buzzes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Room

			if err := client.Get(cmd.Context(), roomPath(args[0], ""), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RoomList

			if err := client.Get(cmd.Context(), "/api/v1/rooms", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <code>",
		Short: "Show a room's finished rounds, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.History

			if err := client.Get(cmd.Context(), roomPath(args[0], "/history"), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newRoomQRCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "qr <code>",
		Short: "Save a PNG QR code of a room's join link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			png, err := client.Fetch(cmd.Context(), roomPath(args[0], "/qr"))
			if err != nil {
				return err
			}

			path := outFile
			if path == "" {
				path = args[0] + ".png"
			}
			if err := os.WriteFile(path, png, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			output(cmd).PrintMessage("QR code written to " + path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "file", "f", "", "Output file (default: <code>.png)")

	return cmd
}
