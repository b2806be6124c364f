package cli

import (
	"resumatcher/internal/config"
	"resumatcher/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume ingestion and improvement",
	Long: `Start an HTTP server that provides REST API endpoints for the resume
improvement pipeline.

Available endpoints:
- POST /resumes: Ingest a resume and extract its keywords
- POST /jobs: Ingest a job description and extract its keywords
- POST /improve: Run the improvement pipeline for a stored resume/job pair
- POST /improve/stream: Stream pipeline progress as server-sent events
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("database-url", "", "Postgres connection URL for document storage (overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("database.url", "database-url")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Hot-apply config file edits; handlers read tuning values such as
	// improve.maxAttempts through this shared pointer.
	config.WatchConfig(logger, func(updated *config.Config) {
		*cfg = *updated
	})

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: int64(cfg.App.MaxFileSize),
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, logger).Start()
}
