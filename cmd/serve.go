package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temporal-nexus/nexus-api/internal/api"
	"github.com/temporal-nexus/nexus-api/internal/auth"
	"github.com/temporal-nexus/nexus-api/internal/jobs"
	"github.com/temporal-nexus/nexus-api/internal/validate"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the decision-support HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		gw, err := initGateway()
		if err != nil {
			return err
		}

		registry, err := initRegistry(ctx)
		if err != nil {
			return err
		}
		if closer, ok := registry.(interface{ Close() error }); ok {
			defer closer.Close() //nolint:errcheck
		}

		schemas, err := validate.LoadRegistry(cfg.Schemas.File)
		if err != nil {
			return err
		}

		runner := jobs.NewRunner(registry, st, gw, cfg.Jobs.QueueDepth, cfg.Jobs.Workers)
		runner.Start(ctx)

		authSvc := auth.NewService(st, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMins)*time.Minute)

		server := api.NewServer(api.Options{
			Store:                 st,
			Registry:              registry,
			Runner:                runner,
			Gateway:               gw,
			Auth:                  authSvc,
			Schemas:               schemas,
			CORSAllowedOrigins:    cfg.Server.CORSAllowedOrigins,
			TimeTravelMaxParallel: cfg.Server.TimeTravelMaxParallel,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      server.Router(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		}

		// Graceful shutdown: stop accepting requests first, then drain
		// the job queue.
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("store", cfg.Store.Driver),
			zap.String("registry", cfg.Jobs.Registry),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			runner.Stop()
			return eris.Wrap(err, "server listen")
		}

		runner.Stop()
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
