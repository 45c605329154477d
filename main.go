package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-kidspots/internal/pkg/config"
	"github.com/FACorreiaa/go-kidspots/internal/server"
	"github.com/FACorreiaa/go-kidspots/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	appLogger, err := logger.New(cfg.LogLevel, zap.String("service", cfg.Observability.ServiceName))
	if err != nil {
		return err
	}
	defer func() { _ = appLogger.Sync() }()

	otelShutdown, err := server.InitObservability(cfg.Observability, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			appLogger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer srv.Close()

	srv.SetRouter(server.SetupRouter(srv.DBPool(), cfg, appLogger))

	pprofServer := server.StartPprofServer(cfg.Observability.PprofAddr, appLogger)
	httpServer := srv.HTTPServer()

	done := make(chan struct{})
	go server.GracefulShutdown(ctx, appLogger, done, httpServer, pprofServer)

	appLogger.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLogger.Error("Server error", zap.Error(err))
		stop()
		<-done
		return err
	}

	<-done
	appLogger.Info("Graceful shutdown complete")
	return nil
}
