// Package daemon wires the cmdq components together and runs them until the
// process is signalled.
//
// STARTUP:
// transport (stub or http) → queue → HTTP API server. With --start the queue
// begins processing right away; otherwise commands are held until a client
// calls POST /api/v1/queue/start or /api/v1/queue/process.
//
// SHUTDOWN:
// The queue is closed first so its final batch can still reach a batch
// endpoint served by this same daemon, then the API server stops.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/concave-dev/cmdq/cmd/cmdqd/config"
	"github.com/concave-dev/cmdq/internal/api"
	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/queue"
	"github.com/concave-dev/cmdq/internal/transport"
	"github.com/concave-dev/cmdq/internal/version"
)

// buildTransport creates the batch transport selected by --transport
func buildTransport() (transport.Transport, error) {
	switch config.Global.Transport {
	case config.TransportHTTP:
		httpConfig := transport.DefaultHTTPConfig(config.Global.Endpoint)
		httpConfig.UserAgent = "cmdqd/" + version.CmdqdVersion
		if config.Global.DispatchTimeout > 0 {
			httpConfig.Timeout = config.Global.DispatchTimeout
		}
		return transport.NewHTTP(httpConfig)

	case config.TransportStub:
		stub := transport.NewStub()
		stub.MinDelay = config.Global.StubDelay
		stub.Jitter = config.Global.StubJitter
		stub.DataFunc = transport.EchoResponder{}.Respond
		return stub, nil

	default:
		return nil, fmt.Errorf("unknown transport %q", config.Global.Transport)
	}
}

// buildQueueOptions converts daemon config to queue options
func buildQueueOptions() queue.Options {
	opts := queue.DefaultOptions()

	opts.DebounceTime = config.Global.DebounceTime
	opts.MaxProcessedCommands = config.Global.MaxCommands
	opts.DispatchTimeout = config.Global.DispatchTimeout

	return opts
}

// buildAPIConfig converts daemon config to API server config
func buildAPIConfig(q *queue.Queue) *api.Config {
	apiConfig := api.DefaultConfig()

	apiConfig.BindAddr = config.Global.APIAddr
	apiConfig.BindPort = config.Global.APIPort
	apiConfig.Queue = q
	apiConfig.Version = version.CmdqdVersion
	apiConfig.WaitTimeout = config.Global.WaitTimeout
	apiConfig.RateLimit = config.Global.RateLimit
	apiConfig.RateBurst = config.Global.RateBurst

	return apiConfig
}

// Run starts the daemon and blocks until SIGINT or SIGTERM
func Run() error {
	logging.Info("Starting cmdq daemon v%s", version.CmdqdVersion)

	// net/http reports accept and TLS errors through the standard logger
	logging.RedirectStandardLog(logging.NewLevelWriter("WARN", "http"))

	t, err := buildTransport()
	if err != nil {
		logging.Error("Failed to create %s transport: %v", config.Global.Transport, err)
		return fmt.Errorf("failed to create transport: %w", err)
	}

	q, err := queue.New(t, buildQueueOptions())
	if err != nil {
		logging.Error("Failed to create queue: %v", err)
		return fmt.Errorf("failed to create queue: %w", err)
	}

	apiConfig := buildAPIConfig(q)
	if err := apiConfig.Validate(); err != nil {
		closeQueue(q)
		return fmt.Errorf("invalid API configuration: %w", err)
	}

	apiServer := api.NewServer(apiConfig)
	if err := apiServer.Start(); err != nil {
		logging.Error("Failed to start API server: %v", err)
		closeQueue(q)
		return fmt.Errorf("failed to start API server: %w", err)
	}

	if config.Global.Start {
		q.StartProcessing()
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	logging.Success("cmdq daemon started successfully")
	logging.Info("Daemon running... Press Ctrl+C to shutdown")

	logging.Info("Queue: debounce %s, max %d commands, processing %s",
		config.Global.DebounceTime, config.Global.MaxCommands, processingState())
	switch config.Global.Transport {
	case config.TransportHTTP:
		logging.Info("Transport: http -> %s", config.Global.Endpoint)
	default:
		logging.Info("Transport: stub (%s + up to %s latency)", config.Global.StubDelay, config.Global.StubJitter)
	}
	logging.Info("HTTP API: %s", apiServer.Addr())

	sig := <-sigCh
	logging.Info("Received signal: %v", sig)

	// ============================================================================
	// GRACEFUL SHUTDOWN: queue first so the last batch can still reach a batch
	// endpoint hosted by this daemon, then the API server
	// ============================================================================

	logging.Info("Initiating graceful shutdown...")

	closeQueue(q)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("Error shutting down API server: %v", err)
	}

	logging.Success("cmdq daemon shutdown completed")
	return nil
}

// closeQueue closes q, waiting up to DefaultShutdownTimeout for in-flight
// batches to finish
func closeQueue(q *queue.Queue) {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
	defer cancel()

	pending := q.Length()
	if err := q.Close(ctx); err != nil {
		logging.Error("Queue did not drain within %s: %v", config.DefaultShutdownTimeout, err)
		return
	}
	logging.Info("Queue closed (%d commands pending at shutdown)", pending)
}

func processingState() string {
	if config.Global.Start {
		return "started"
	}
	return "held until start"
}
