package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/retailtwin/internal/action"
	"github.com/gyaneshwarpardhi/retailtwin/internal/action/notify"
	"github.com/gyaneshwarpardhi/retailtwin/internal/action/raise"
	"github.com/gyaneshwarpardhi/retailtwin/internal/alert"
	"github.com/gyaneshwarpardhi/retailtwin/internal/api"
	"github.com/gyaneshwarpardhi/retailtwin/internal/config"
	"github.com/gyaneshwarpardhi/retailtwin/internal/engine"
	"github.com/gyaneshwarpardhi/retailtwin/internal/generator"
	"github.com/gyaneshwarpardhi/retailtwin/internal/logging"
	"github.com/gyaneshwarpardhi/retailtwin/internal/rules"
	"github.com/gyaneshwarpardhi/retailtwin/internal/sink"
	"github.com/gyaneshwarpardhi/retailtwin/internal/stream"
)

func main() {
	cfgPath := flag.String("config", "configs/monitor.yaml", "Path to monitor YAML config")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	flag.Parse()

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath, slog.Default())
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		slog.Error("invalid log settings", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	// ── Actions and rule graph ───────────────────────────────────────────────
	alerts := alert.NewStore(cfg.Alerts.Retained)
	reg := action.NewRegistry()
	reg.Register(raise.New(alerts))
	reg.Register(notify.New(logger))

	g, err := rules.Build(cfg.Rules, reg)
	if err != nil {
		slog.Error("failed to build rule graph", "err", err)
		os.Exit(1)
	}
	slog.Info("rule graph built", "nodes", g.NodeCount(), "rules", len(g.Roots()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, g, reg, cfg.Engine, logger)

	// ── Event stream ─────────────────────────────────────────────────────────
	genOpts := []generator.Option{generator.WithVocabulary(cfg.Stream.Vocabulary)}
	if cfg.Stream.Seed != 0 {
		genOpts = append(genOpts, generator.WithSeed(cfg.Stream.Seed))
	}
	es, err := stream.New(generator.New(genOpts...), cfg.Stream.Options(), stream.WithLogger(logger))
	if err != nil {
		slog.Error("invalid stream settings", "err", err)
		os.Exit(1)
	}
	cancelEngine := es.Subscribe(eng.HandleUpdate)
	defer cancelEngine()

	var pub *sink.Publisher
	if cfg.Sink.Kafka.Enabled {
		pub = sink.NewKafka(cfg.Sink.Kafka, logger)
		pub.Start(ctx)
		cancelSink := es.Subscribe(pub.Handle)
		defer cancelSink()
	} else {
		slog.Info("kafka sink disabled")
	}

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := eng.ApplyRules(newCfg.Rules); err != nil {
			slog.Warn("hot-reload skipped: rule graph build failed", "err", err)
		}
		if !reflect.DeepEqual(newCfg.Stream, cfg.Stream) {
			slog.Warn("stream settings changed; restart required to apply them")
		}
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	listen := cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}
	handler := api.New(api.Deps{
		Stream:         es,
		Engine:         eng,
		Alerts:         alerts,
		Loader:         loader,
		Registry:       reg,
		Logger:         logger,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})
	// Request contexts end on shutdown so open SSE streams let go.
	reqCtx, reqCancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:         listen,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return reqCtx },
	}
	srv.RegisterOnShutdown(reqCancel)

	go func() {
		slog.Info("server starting", "addr", listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	if cfg.Stream.AutoStart {
		es.Start()
	}

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	es.Stop() // no more updates reach the engine or sink
	eng.Shutdown()
	if pub != nil {
		if err := pub.Close(); err != nil {
			slog.Warn("kafka sink close failed", "err", err)
		}
	}
	cancel()
	slog.Info("goodbye")
}
