package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/postertile/internal/logging"
	"github.com/kiesman99/postertile/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the poster tiling API",
	Long: `Start an HTTP server that plans layouts and turns uploaded images into
tiled PDFs or zip archives. Layout flags given here become the defaults for
requests that leave a parameter unset.

Examples:
  # Start server on default port 8080
  postertile serve

  # Start server on custom port
  postertile serve --port 3000

  # Start server with custom bind address
  postertile serve --bind 0.0.0.0 --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 60*time.Second, "request timeout")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.FromContext(cmd.Context())

	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	defaults, err := posterOptions(viper.GetViper())
	if err != nil {
		return err
	}
	if _, err := defaults.Spec.Geometry(); err != nil {
		return fmt.Errorf("default layout: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", bind, port)
	apiServer := server.NewServer(version, defaults, logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer.Router(timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "err", err)
		}
	}()

	logger.Info("Starting postertile server", "addr", addr)
	logger.Info("Endpoints",
		"health", fmt.Sprintf("http://%s/api/v1/health", addr),
		"plan", fmt.Sprintf("http://%s/api/v1/plan", addr),
		"poster", fmt.Sprintf("http://%s/api/v1/poster", addr))

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
