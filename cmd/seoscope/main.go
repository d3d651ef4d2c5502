package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/seoscope/config"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:     "seoscope",
	Short:   "Competitive SEO content analysis",
	Version: version,
	Long: `seoscope discovers top-ranking competitors for a query, scrapes and
scores their content against a target URL, and surfaces the semantic gaps
worth closing.`,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// initLogger configures slog the way every long-running command here does.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// exitCode is a typed wrapper an operation can return to request a specific
// process exit code without main inspecting error strings.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit code %d", int(e)) }

const (
	exitOK             exitCode = 0
	exitFatalError     exitCode = 1
	exitPartialSuccess exitCode = 2
	exitLockContention exitCode = 3
)

func exitCodeFor(err error) int {
	if err == nil {
		return int(exitOK)
	}
	if ec, ok := err.(exitCode); ok {
		return int(ec)
	}
	return int(exitFatalError)
}
