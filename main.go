package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/boqier/loki-mcp-server/handlers"
	"github.com/boqier/loki-mcp-server/pkg/config"
	"github.com/boqier/loki-mcp-server/prompts"
	"github.com/boqier/loki-mcp-server/resources"
	"github.com/boqier/loki-mcp-server/tools"

	lokipkg "github.com/boqier/loki-mcp-server/pkg/loki"
)

const version = "0.1.0"

var (
	flagConfig string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:   "loki-mcp-server",
	Short: "MCP server exposing Grafana Loki log querying as callable tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the MCP wire protocol, so all logging goes to stderr.
		level := zerolog.InfoLevel
		if flagDebug || os.Getenv(config.EnvDebug) == "true" {
			level = zerolog.DebugLevel
		}
		logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

		if flagConfig != "" {
			os.Setenv(config.EnvConfigPath, flagConfig)
		}
		cfg := config.Resolve(logger)

		svc, err := lokipkg.NewService(cfg, logger)
		if err != nil {
			return err
		}

		s := server.NewMCPServer(
			"Loki MCP Server",
			version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(true, true),
			server.WithPromptCapabilities(true),
			// A panicking handler is logged and answered as an error;
			// the process keeps serving subsequent calls.
			server.WithRecovery(),
		)

		s.AddTool(tools.QueryLokiTool(), handlers.QueryLoki(svc))
		s.AddTool(tools.GetLabelsTool(), handlers.GetLabels(svc))
		s.AddTool(tools.GetLabelValuesTool(), handlers.GetLabelValues(svc))
		s.AddTool(tools.GetSeriesTool(), handlers.GetSeries(svc))
		s.AddPrompt(prompts.UseSelectorPrompt(), handlers.UseSelectorPrompt())
		s.AddResource(resources.ConnectionResource(), handlers.GetConnection(cfg))

		logger.Info().Str("version", version).Msg("server starting")
		return server.ServeStdio(s)
	},
}

func main() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Path to the config file")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
