package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/ai"
	"github.com/spigell/resumematch/internal/httpserver"
	"github.com/spigell/resumematch/internal/metrics"
	"github.com/spigell/resumematch/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := bootstrap()
	metrics.Init()

	svc := newService(ctx, config, logger)

	// Other providers have their own catalogues; accept whatever the user sends.
	var models []string
	if servesCatalogue(config.LLM.Provider) {
		models = ai.Models
	}

	srv := httpserver.NewServer(svc, session.NewStore(), httpserver.Options{
		CORSOrigins:     httpserver.ParseOrigins(config.Server.CORSOrigins),
		RateLimitPerMin: config.Server.RateLimitPerMin,
		MaxUploadMB:     config.Server.MaxUploadMB,
		Models:          models,
	}, logger)

	httpSrv := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           httpserver.BuildRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down the http server", zap.Error(err))
		}
	}()

	logger.Info("starting the resumematch api", zap.String("addr", config.Server.Addr), zap.String("version", version))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serving http", zap.Error(err))
	}
	logger.Info("http server stopped")
}
