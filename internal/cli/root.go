package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd(version string) *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "buzzctl",
		Short: "CLI tool for the buzzer server",
		Long: `buzzctl talks to a buzzer server over its JSON API and websocket.

It can inspect rooms and their round history, watch a room live, buzz as a
player and drive rounds as the host.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			client = NewClient(cfg.ServerURL, cfg.Timeout)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	fs := rootCmd.PersistentFlags()
	fs.StringVarP(&cfg.ServerURL, "server", "s", cfg.ServerURL, "Server URL (env: BUZZCTL_SERVER)")
	fs.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json (env: BUZZCTL_OUTPUT)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output (env: BUZZCTL_VERBOSE)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request and reply timeout (env: BUZZCTL_TIMEOUT)")
	bindEnv(fs)

	// Add subcommands
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newRoomCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newBuzzCmd())
	rootCmd.AddCommand(newHostCmd())

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetVersionTemplate("buzzctl v{{.Version}}\n")

	return rootCmd
}

// Execute runs the root command, printing and returning any error
func Execute(ctx context.Context, version string) error {
	return execute(ctx, NewRootCmd(version))
}

func execute(ctx context.Context, cmd *cobra.Command) error {
	if err := cmd.ExecuteContext(ctx); err != nil {
		output(cmd).PrintError(err)
		return err
	}
	return nil
}

// output returns a formatter writing to the command's streams
func output(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// logf prints progress to stderr when --verbose is set
func logf(cmd *cobra.Command, format string, args ...any) {
	if cfg.Verbose {
		cmd.PrintErrf(format+"\n", args...)
	}
}
