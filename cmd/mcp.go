package cmd

import (
	"context"
	"os"
	"time"

	"github.com/bitop-dev/firefly"
	"github.com/bitop-dev/firefly/config"
	"github.com/bitop-dev/firefly/internal/mock"
	"github.com/bitop-dev/firefly/mcp"
	"github.com/spf13/cobra"
)

var (
	mcpUseMocks bool
	mcpTimeout  time.Duration
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the generate_image tool over MCP on stdio",
	Long: "mcp runs a Model Context Protocol server on stdin/stdout. Credentials from the\n" +
		"config file or environment are used when a tool call does not pass its own.",
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	f := mcpCmd.Flags()
	f.BoolVar(&mcpUseMocks, "use-mocks", false, "answer API calls locally, for trying the server without valid credentials")
	f.DurationVar(&mcpTimeout, "timeout", 0, "timeout for each API call (default 30s)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	file, err := config.LoadFile(cfgFile)
	if err != nil {
		return err
	}
	settings := config.Resolve(file, config.Overrides{Timeout: mcpTimeout}, os.Getenv)

	hc := httpClientFactory()
	if mcpUseMocks {
		hc = mock.NewClient()
	}
	// stdout carries the protocol, so logs go to stderr only.
	srv := mcp.NewServer(firefly.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		Timeout:      settings.Timeout,
		TokenURL:     settings.TokenURL,
		GenerateURL:  settings.GenerateURL,
		HTTPClient:   hc,
		Logger:       newLogger(cmd.ErrOrStderr(), verbose),
	}, rootCmd.Version)
	return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
