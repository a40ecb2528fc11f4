package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	kitzap "github.com/go-kit/kit/log/zap"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	kitgrpc "github.com/go-kit/kit/transport/grpc"
	"github.com/joho/godotenv"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"

	"github.com/Qalifah/flowpreview/config"
	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/inmem"
	"github.com/Qalifah/flowpreview/postgres"
	"github.com/Qalifah/flowpreview/preview"
	"github.com/Qalifah/flowpreview/scenario"
	"github.com/Qalifah/flowpreview/schedule"
	"github.com/Qalifah/flowpreview/sqlite"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.MustLoad()

	logger, sync := newLogger(cfg.Log)
	defer sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zipkinTracer, closeReporter, err := newZipkinTracer(cfg.Zipkin.URL, cfg.HTTP.Addr)
	if err != nil {
		level.Error(logger).Log("msg", "cannot create zipkin tracer", "err", err)
		os.Exit(1)
	}
	defer closeReporter()
	otTracer := stdopentracing.GlobalTracer()

	repos, err := openRepositories(ctx, cfg.Storage, log.With(logger, "component", "storage"))
	if err != nil {
		level.Error(logger).Log("msg", "cannot open storage", "driver", cfg.Storage.Driver, "err", err)
		os.Exit(1)
	}
	defer repos.close()

	fieldKeys := []string{"method"}

	var ps preview.Service
	ps = preview.NewService(preview.NewInputs(repos.schedules, repos.windows, repos.distributions))
	ps = preview.NewLoggingService(log.With(logger, "component", "preview"), ps)
	ps = preview.NewInstrumentingService(
		kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "api",
			Subsystem: "preview_service",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, fieldKeys),
		kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: "api",
			Subsystem: "preview_service",
			Name:      "request_latency_seconds",
			Help:      "Total duration of requests in seconds.",
		}, fieldKeys),
		ps,
	)

	var ss scenario.Service
	ss = scenario.NewService(repos.schedules, repos.windows, repos.distributions, repos.databases)
	ss = scenario.NewLoggingService(log.With(logger, "component", "scenario"), ss)
	ss = scenario.NewInstrumentingService(
		kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "api",
			Subsystem: "scenario_service",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, fieldKeys),
		kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: "api",
			Subsystem: "scenario_service",
			Name:      "request_latency_seconds",
			Help:      "Total duration of requests in seconds.",
		}, fieldKeys),
		ss,
	)

	duration := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: "flowpreview",
		Subsystem: "preview",
		Name:      "request_duration_seconds",
		Help:      "Request duration in seconds.",
	}, []string{"method", "success"})

	limits := preview.Limits{PerSecond: cfg.RateLimit.PerSecond, Burst: cfg.RateLimit.Burst}
	previewSet := preview.NewSet(ps, limits, logger, duration, otTracer, zipkinTracer)

	httpLogger := log.With(logger, "component", "http")

	mux := http.NewServeMux()
	mux.Handle("/preview/v1/", preview.MakeHandler(previewSet, otTracer, httpLogger))
	mux.Handle("/scenario/v1/", scenario.MakeHandler(ss, httpLogger))
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{Addr: cfg.HTTP.Addr, Handler: accessControl(mux)}

	grpcListener, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		level.Error(logger).Log("transport", "gRPC", "during", "Listen", "err", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(kitgrpc.Interceptor))
	newGRPCServers(previewSet, otTracer, zipkinTracer, logger).register(grpcServer)

	errs := make(chan error, 2)
	go func() {
		level.Info(logger).Log("transport", "http", "address", cfg.HTTP.Addr, "msg", "listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	go func() {
		level.Info(logger).Log("transport", "gRPC", "address", cfg.GRPC.Addr, "msg", "listening")
		errs <- grpcServer.Serve(grpcListener)
	}()

	select {
	case <-ctx.Done():
		level.Info(logger).Log("msg", "shutdown signal received")
	case err := <-errs:
		level.Error(logger).Log("msg", "server stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("transport", "http", "during", "Shutdown", "err", err)
	}
	grpcServer.GracefulStop()
	level.Info(logger).Log("msg", "terminated")
}

func newLogger(cfg config.LogConfig) (log.Logger, func()) {
	var (
		logger log.Logger
		sync   = func() {}
	)
	switch cfg.Format {
	case "zap":
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		zl, err := zcfg.Build()
		if err != nil {
			panic(err)
		}
		logger = kitzap.NewZapSugarLogger(zl, zapcore.InfoLevel)
		sync = func() { _ = zl.Sync() }
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	default:
		logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	}
	logger = level.NewFilter(logger, levelOption(cfg.Level))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return logger, sync
}

func levelOption(s string) level.Option {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// newZipkinTracer returns a nil tracer when no collector URL is configured.
func newZipkinTracer(url, hostPort string) (*stdzipkin.Tracer, func(), error) {
	if url == "" {
		return nil, func() {}, nil
	}
	if strings.HasPrefix(hostPort, ":") {
		hostPort = "localhost" + hostPort
	}
	reporter := zipkinhttp.NewReporter(url)
	endpoint, err := stdzipkin.NewEndpoint("flowpreviewd", hostPort)
	if err != nil {
		reporter.Close()
		return nil, nil, err
	}
	tracer, err := stdzipkin.NewTracer(reporter, stdzipkin.WithLocalEndpoint(endpoint))
	if err != nil {
		reporter.Close()
		return nil, nil, err
	}
	return tracer, func() { reporter.Close() }, nil
}

type repositories struct {
	schedules     schedule.Repository
	windows       schedule.WindowRepository
	distributions distribution.Repository
	databases     scenario.Databases
	close         func()
}

func openRepositories(ctx context.Context, cfg config.StorageConfig, logger log.Logger) (repositories, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		chooser := sqlite.NewChooser(cfg.SQLite.Dir, logger)
		err := chooser.Load(ctx, cfg.SQLite.Database)
		if errors.Is(err, sqlite.ErrUnknownDatabase) {
			err = chooser.Create(ctx, cfg.SQLite.Database)
		}
		if err != nil {
			return repositories{}, err
		}
		store := sqlite.NewCurrentStore(chooser)
		return repositories{
			schedules:     store,
			windows:       store,
			distributions: store,
			databases:     chooser,
			close:         func() { chooser.Close() },
		}, nil

	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.DSN, logger)
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			schedules:     store,
			windows:       store,
			distributions: store,
			close:         store.Close,
		}, nil

	case config.DriverMemory:
		return repositories{
			schedules:     inmem.NewScheduleRepository(),
			windows:       inmem.NewWindowRepository(),
			distributions: inmem.NewDistributionRepository(),
			close:         func() {},
		}, nil
	}
	return repositories{}, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func accessControl(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")

		if r.Method == "OPTIONS" {
			return
		}

		h.ServeHTTP(w, r)
	})
}
