package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"github.com/kalambet/modelserver/internal/api"
	"github.com/kalambet/modelserver/internal/config"
	"github.com/kalambet/modelserver/internal/engine"
	"github.com/kalambet/modelserver/internal/logging"
	"github.com/kalambet/modelserver/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the model and serve the HTTP API (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func generationParams(g config.GenerationConfig) engine.Params {
	return engine.Params{
		MaxLength:          g.MaxLength,
		Temperature:        g.Temperature,
		TopP:               g.TopP,
		DoSample:           g.DoSample,
		NumReturnSequences: g.NumReturnSequences,
	}
}

// setup loads configuration, installs logging and initializes the engine.
// Any error means the process must not serve. The returned closer flushes
// the log file.
func setup(ctx context.Context, logStderr io.Writer) (config.Config, *service.Service, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}

	logger, closer := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		Debug:      cfg.Server.Debug,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Stderr:     logStderr,
	})

	params := generationParams(cfg.Generation)
	if err := params.Validate(); err != nil {
		logger.Error("invalid generation parameters", "error", err)
		return cfg, nil, closer, fmt.Errorf("invalid generation parameters: %w", err)
	}

	device := engine.DeviceFromGPUFlag(cfg.Engine.UseGPU)
	loader, err := engine.NewLoader(engine.BackendConfig{
		Name:        cfg.Engine.Backend,
		BaseURL:     cfg.Engine.BaseURL,
		PullMissing: cfg.Engine.PullMissing,
		Logger:      logger,
	})
	if err != nil {
		err = &engine.InitError{ModelID: cfg.Model.ID, Device: device, Err: err}
		logger.Error("error loading model", "model", cfg.Model.ID, "device", device, "error", err)
		return cfg, nil, closer, err
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Engine.LoadTimeoutDuration())
	defer cancel()

	logger.Info("loading model", "model", cfg.Model.ID, "device", device, "backend", cfg.Engine.Backend)
	handle, err := engine.Initialize(loadCtx, loader, cfg.Model.ID, device, engine.Options{
		MaxConcurrency: cfg.Engine.MaxConcurrency,
	})
	if err != nil {
		logger.Error("error loading model", "model", cfg.Model.ID, "device", device, "error", err)
		return cfg, nil, closer, err
	}
	logger.Info("model loaded successfully", "model", cfg.Model.ID, "device", device)

	return cfg, service.New(handle, params, logger), closer, nil
}

func runServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, svc, closer, err := setup(ctx, os.Stderr)
	if closer != nil {
		defer closer.Close()
	}
	if err != nil {
		return err
	}
	slog.Info("modelserver starting", "version", version, "debug", cfg.Server.Debug)

	handler := api.NewHandler(svc, api.Options{
		Debug:        cfg.Server.Debug,
		CORSOrigins:  cfg.Server.CORSOrigins,
		MaxBodyBytes: int64(cfg.Server.MaxBodyBytes),
		Logger:       slog.Default(),
	})

	addr := cfg.Server.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	if cfg.Server.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.Server.MaxConnections)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("modelserver listening", "addr", ln.Addr().String(), "max_connections", cfg.Server.MaxConnections)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return shutdown(srv, shutdownGrace)
}

const shutdownGrace = 5 * time.Second

// shutdown stops accepting connections and waits up to grace for in-flight
// requests. Requests still running after that are cut off; that is logged,
// not returned, so a normal SIGTERM exits cleanly.
func shutdown(srv *http.Server, grace time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	err := srv.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("shutdown grace period elapsed, closing remaining connections", "grace", grace)
		return srv.Close()
	}
	return err
}
