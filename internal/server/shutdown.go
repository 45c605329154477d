package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// GracefulShutdown waits for ctx to be cancelled (normally by SIGINT/SIGTERM), then drains
// every server, giving in-flight requests shutdownTimeout to finish.
func GracefulShutdown(ctx context.Context, logger *zap.Logger, done chan<- struct{}, servers ...*http.Server) {
	<-ctx.Done()
	logger.Info("Shutting down gracefully", zap.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}

	logger.Info("Server exiting")
	close(done)
}
