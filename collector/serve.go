package collector

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/warehouse/config"
)

// ShutdownTimeout bounds graceful shutdown once ctx is canceled.
const ShutdownTimeout = 10 * time.Second

// Serve runs the collector described by cfg until ctx is canceled.
// An empty DataDir keeps records in memory.
func Serve(ctx context.Context, cfg config.CollectorConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	store, err := OpenStore(StoreConfig{
		Path:       cfg.DataDir,
		InMemory:   cfg.DataDir == "",
		SyncWrites: true,
		GCInterval: 5 * time.Minute,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln, NewServer(store, WithServerLogger(logger), WithServerAPIKey(cfg.APIKey)), logger)
}

// ServeListener serves srv on ln until ctx is canceled, then shuts down gracefully.
// Cleartext HTTP/2 (h2c) is accepted alongside HTTP/1.1.
func ServeListener(ctx context.Context, ln net.Listener, srv *Server, logger *slog.Logger) error {
	httpSrv := &http.Server{
		Handler:           h2c.NewHandler(srv.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("collector listening", "addr", ln.Addr().String())
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
