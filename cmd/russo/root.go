package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "russo",
		Short: "russo - test harness for voice-driven agents",
		Long: `russo runs spoken prompts through a voice agent and checks the tool
calls it makes in response.

A suite file declares the synthesizer, the agent endpoint, and scenarios
pairing prompts with expected tool calls. Each scenario can run many times
concurrently to surface flaky behavior.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// API keys for TTS/agent backends commonly live in a .env file.
		_ = godotenv.Load()
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCacheCommand())
	cmd.AddCommand(newInitCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
