package cli

import (
	"fmt"

	"recruitagent/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the session-based HTTP API",
	Long: `Start an HTTP server exposing the recruitment actions on per-session state.

Session endpoints:
- POST   /sessions: Create a session
- GET    /sessions/{id}: Session summary
- DELETE /sessions/{id}: Delete a session
- POST   /sessions/{id}/resume: Upload a resume (multipart field "file")
- PUT    /sessions/{id}/job-description: Set the job description
- POST   /sessions/{id}/analyze: ATS analysis
- POST   /sessions/{id}/questions: Interview questions
- POST   /sessions/{id}/improve: Improve the resume
- POST   /sessions/{id}/ask: Ask about the resume
- GET    /sessions/{id}/improved-resume: Download the improved resume
- GET    /health and /stats

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Config is loaded before flags are parsed, so apply explicit flags here.
	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"tls-mode":  &cfg.Server.TLS.Mode,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
		"ca-file":   &cfg.Server.TLS.CAFile,
	}
	for name, target := range overrides {
		if cmd.Flags().Changed(name) {
			value, err := cmd.Flags().GetString(name)
			if err != nil {
				return err
			}
			*target = value
		}
	}

	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	srv := server.NewServer(cfg, server.ServerConfigFrom(cfg, Version), logger)
	return srv.Start(cmd.Context())
}
