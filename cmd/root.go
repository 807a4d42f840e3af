// Package cmd implements the firefly CLI commands.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bitop-dev/firefly"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var (
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

var rootCmd = &cobra.Command{
	Use:           "firefly",
	Short:         "Generate images with Adobe Firefly",
	Long:          "firefly is a command-line client for the Adobe Firefly text-to-image API.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "firefly.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print status messages to stderr")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(mcpCmd)
}

// SetVersionInfo sets the version and commit for display.
func SetVersionInfo(version, commit string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("firefly %s (commit: %s)\n", version, commit))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(describeError(err)))
		os.Exit(1)
	}
}

func describeError(err error) string {
	switch {
	case firefly.IsValidationError(err):
		return "Invalid request: " + err.Error()
	case firefly.IsAuthError(err):
		return "Authentication failed: " + err.Error()
	case firefly.IsAPIError(err):
		return "API error: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

func notice(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, noticeStyle.Render(fmt.Sprintf(format, args...)))
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
