package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"evolve/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves GET /, /health and /stats, and POST /upload and /query.
The listen address comes from server.addr, HTTP_ADDR or --addr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	router := httpapi.NewRouter(a.svc, httpapi.RouterConfig{
		Timeout:        secs(cfg.Server.TimeoutSecs),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpapi.Serve(ctx, srv, logger)
}
