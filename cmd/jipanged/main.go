// Jipanged is the jipange API server.
//
// It serves the assistant, task extraction, task and integration endpoints
// over HTTP. Configuration comes from ~/.config/jipange/config.yaml (or the
// file named by -config) overlaid with environment variables. See
// internal/config for the keys.
//
// Usage:
//
//	# Start the server with defaults
//	jipanged
//
//	# Configure via environment
//	SERVER_HTTP_PORT=9000 LLM_API_KEY=... jipanged
//
//	# Print version information
//	jipanged version
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/jipange/internal/assistant"
	"github.com/fyrsmithlabs/jipange/internal/config"
	"github.com/fyrsmithlabs/jipange/internal/conversation"
	"github.com/fyrsmithlabs/jipange/internal/events"
	httpserver "github.com/fyrsmithlabs/jipange/internal/http"
	"github.com/fyrsmithlabs/jipange/internal/integrations"
	"github.com/fyrsmithlabs/jipange/internal/llm"
	"github.com/fyrsmithlabs/jipange/internal/logging"
	"github.com/fyrsmithlabs/jipange/internal/pipeline"
	"github.com/fyrsmithlabs/jipange/internal/secrets"
	"github.com/fyrsmithlabs/jipange/internal/task"
	"github.com/fyrsmithlabs/jipange/internal/telemetry"
)

const instrumentationName = "github.com/fyrsmithlabs/jipange/cmd/jipanged"

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.config/jipange/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  jipanged [-config path]   Start the API server\n")
			fmt.Fprintf(os.Stderr, "  jipanged version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printVersion() {
	fmt.Printf("jipanged by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires every service, serves HTTP and blocks until ctx is cancelled,
// then shuts down within the configured timeout.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg, version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg, err := logging.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()

	if h := tel.Health(); h.Degraded {
		logger.Warn("telemetry degraded", zap.Strings("problems", h.Problems))
	}

	logger.Info("starting jipanged",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("telemetry", cfg.Observability.EnableTelemetry),
		zap.Bool("nats", cfg.NATS.Enabled))

	deps, err := initDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	services, err := initServices(cfg, deps, tel, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	srv, err := httpserver.NewServer(services, logger, &httpserver.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

// dependencies holds infrastructure connections.
type dependencies struct {
	natsConn  *nats.Conn
	publisher events.Publisher
	registry  *prometheus.Registry
}

// Close releases infrastructure resources. Pending NATS messages are
// flushed first.
func (d *dependencies) Close() {
	if d.natsConn != nil {
		_ = d.natsConn.Drain()
	}
}

func initDependencies(cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps := &dependencies{publisher: events.NopPublisher{}, registry: reg}

	if !cfg.NATS.Enabled {
		logger.Info("event publishing disabled")
		return deps, nil
	}

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("jipanged"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	logger.Info("connected to NATS",
		zap.String("url", cfg.NATS.URL),
		zap.String("subject_prefix", cfg.NATS.SubjectPrefix))

	deps.natsConn = nc
	deps.publisher = events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
	return deps, nil
}

func initServices(cfg *config.Config, deps *dependencies, tel *telemetry.Telemetry, logger *zap.Logger) (httpserver.Services, error) {
	scrubber, err := secrets.New(secrets.DefaultConfig())
	if err != nil {
		return httpserver.Services{}, fmt.Errorf("failed to create scrubber: %w", err)
	}

	chat, err := newChatClient(cfg, logger)
	if err != nil {
		return httpserver.Services{}, err
	}
	transcriber, err := newTranscriber(cfg, logger)
	if err != nil {
		return httpserver.Services{}, err
	}

	convs := conversation.NewMemoryStore()
	tasks := task.NewService(task.NewMemoryStore(), deps.publisher, logger)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithTranscriber(transcriber),
		pipeline.WithUserContext(convs),
		pipeline.WithTaskSaver(tasks),
		pipeline.WithMetrics(pipeline.NewMetrics(deps.registry)),
		pipeline.WithTracer(tel.Tracer(instrumentationName)),
	}
	if cfg.Extraction.ScrubTranscripts {
		opts = append(opts, pipeline.WithScrubber(scrubber))
	}

	return httpserver.Services{
		Assistant: assistant.NewService(convs, chat,
			assistant.WithLogger(logger),
			assistant.WithScrubber(scrubber),
			assistant.WithHistoryLimit(cfg.Extraction.HistoryWindow)),
		Pipeline:     pipeline.NewService(chat, opts...),
		Tasks:        tasks,
		Integrations: integrations.NewService(nil, deps.publisher, logger),
		Gatherer:     deps.registry,
		Meter:        tel.Meter(instrumentationName),
		Telemetry:    tel,
	}, nil
}

// newChatClient returns a NoopClient when no API key is configured; the
// assistant and pipeline then answer with their offline fallbacks.
func newChatClient(cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	if !cfg.LLM.APIKey.IsSet() {
		logger.Warn("no LLM API key configured, using offline replies")
		return llm.NoopClient{}, nil
	}
	client, err := llm.NewChatClient(llm.Config{
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey.Value(),
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
		RateLimit:  cfg.LLM.RateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	logger.Info("LLM client initialized",
		zap.String("base_url", cfg.LLM.BaseURL),
		zap.String("model", cfg.LLM.Model),
		logging.Secret("api_key", cfg.LLM.APIKey))
	return client, nil
}

func newTranscriber(cfg *config.Config, logger *zap.Logger) (llm.Transcriber, error) {
	if !cfg.Transcription.APIKey.IsSet() {
		logger.Warn("no transcription API key configured, voice input disabled")
		return llm.NoopTranscriber{}, nil
	}
	client, err := llm.NewWhisperClient(llm.Config{
		BaseURL: cfg.Transcription.BaseURL,
		Model:   cfg.Transcription.Model,
		APIKey:  cfg.Transcription.APIKey.Value(),
		Timeout: cfg.Transcription.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription client: %w", err)
	}
	logger.Info("transcription client initialized",
		zap.String("base_url", cfg.Transcription.BaseURL),
		zap.String("model", cfg.Transcription.Model))
	return client, nil
}
