package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alecgard/socialsync/internal/apiclient"
	"github.com/alecgard/socialsync/internal/config"
	"github.com/alecgard/socialsync/internal/dataservice"
	"github.com/alecgard/socialsync/internal/events"
	"github.com/alecgard/socialsync/internal/localstore"
	"github.com/alecgard/socialsync/internal/metrics"
	"github.com/alecgard/socialsync/internal/ratelimit"
)

// app holds the collaborators every command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *localstore.Store
	metrics  *metrics.Metrics
	client   *apiclient.Client
	limiter  *ratelimit.Transport
	recorder *events.Recorder
	svc      *dataservice.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	store, err := localstore.Open(cfg.Storage.Dir, cfg.Storage.Passphrase)
	if err != nil {
		return nil, err
	}
	store.SetLogger(logger)

	m := metrics.New()
	if err := m.WatchStore(store.Stats); err != nil {
		return nil, fmt.Errorf("registering store metrics: %w", err)
	}

	var transport http.RoundTripper = http.DefaultTransport
	var limited *ratelimit.Transport
	if cfg.API.RateLimit > 0 {
		limited = ratelimit.NewTransport(transport, ratelimit.New(cfg.API.RateLimit, cfg.API.RateWindow), cfg.API.MaxWait)
		limited.SetRejectionCounter(m)
		transport = limited
	}
	client := apiclient.New(cfg.APIBase(), &http.Client{Timeout: cfg.API.Timeout, Transport: transport}, store)
	client.SetLogger(logger)
	client.SetObserver(m)

	a := &app{cfg: cfg, logger: logger, store: store, metrics: m, client: client, limiter: limited}

	opts := []dataservice.Option{
		dataservice.WithSessionCache(store),
		dataservice.WithObserver(m),
		dataservice.WithLogger(logger),
	}
	if cfg.Events.Enabled {
		rec := events.NewRecorder(client, cfg.Events.BatchSize, cfg.Events.FlushInterval)
		rec.SetObserver(m)
		rec.SetLogger(logger)
		a.recorder = rec
		opts = append(opts, dataservice.WithEventRecorder(rec))
	}

	var policy dataservice.Policy
	switch cfg.Persistence.Policy {
	case config.PolicyStrict:
		policy = dataservice.StrictPolicy()
	default:
		policy = dataservice.DegradedPolicy(store)
	}
	a.svc = dataservice.New(client, policy, opts...)

	return a, nil
}

// Close stops the recorder, flushing what is still buffered.
func (a *app) Close() {
	if a.recorder != nil {
		a.recorder.Stop()
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

type runFunc func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error

// withApp builds the app for one command run and cancels the context on
// SIGINT or SIGTERM.
func withApp(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if a.recorder != nil {
			go a.recorder.Start(ctx)
		}
		return fn(ctx, a, cmd, args)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
