// Command server wires the request lifecycle service: stores, directory,
// audit trail, HTTP surface, and lifecycle management. Business logic lives
// in the internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"driveflow/internal/assignment"
	"driveflow/internal/audit"
	auditkafka "driveflow/internal/audit/kafka"
	"driveflow/internal/identity"
	identityhandler "driveflow/internal/identity/handler"
	jwttoken "driveflow/internal/jwt_token"
	"driveflow/internal/platform/config"
	"driveflow/internal/platform/httpserver"
	"driveflow/internal/platform/logger"
	platformmetrics "driveflow/internal/platform/metrics"
	"driveflow/internal/platform/middleware"
	platformredis "driveflow/internal/platform/redis"
	"driveflow/internal/request"
	requesthandler "driveflow/internal/request/handler"
	requestmetrics "driveflow/internal/request/metrics"
	httptransport "driveflow/internal/transport/http"
	"driveflow/internal/workflow"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]httptransport.HealthChecker{}

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		requestStore  request.Store
		auditStore    audit.Store
		identityStore identity.Store
	)
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		for _, schema := range []string{identity.Schema, request.Schema, audit.Schema} {
			if _, err := pool.Exec(ctx, schema); err != nil {
				return err
			}
		}
		requestStore = request.NewPostgres(pool, log)
		auditStore = audit.NewPostgres(pool)
		identityStore = identity.NewPostgres(pool)
		checks["postgres"] = poolHealth{pool}
		log.Info("using postgres stores")
	} else {
		requestStore = request.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		identityStore = identity.NewInMemoryStore()
		log.Warn("no postgres configured, using in-memory stores")
	}

	// Directory, optionally cached in Redis.
	var directory identity.Directory = identityStore
	var invalidator identityhandler.Invalidator
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		cached := identity.NewCachedDirectory(identityStore, redisClient.Client, cfg.Redis.CacheTTL)
		directory = cached
		invalidator = cached
		checks["redis"] = redisClient
		log.Info("directory cache enabled")
	}

	// Audit sink: Kafka when brokers are configured. Entries flow through a
	// buffered inbox drained by the worker so publishing never blocks writes.
	var (
		sink       audit.Sink
		auditInbox chan audit.Entry
	)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sink = publisher
		auditInbox = make(chan audit.Entry, 256)
		log.Info("audit kafka sink enabled", "topic", cfg.Kafka.Topic)
	}
	recorder := audit.NewRecorder(auditStore, auditInbox, log)

	requests := request.NewService(
		requestStore,
		directory,
		assignment.NewService(directory),
		workflow.NewEngine(),
		recorder,
		requestmetrics.New(),
		log,
	)

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	var validator middleware.JWTValidator = jwttoken.NewJWTServiceAdapter(jwtService)
	httpMetrics := platformmetrics.New()

	router := httptransport.NewRouter([]httptransport.Registrar{
		requesthandler.New(requests, log, httpMetrics, validator),
		identityhandler.New(identityStore, invalidator, log, validator),
	}, checks)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	if sink != nil {
		worker := audit.NewWorker(sink, auditInbox, log)
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}
	g.Go(func() error {
		log.Info("starting driveflow", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// poolHealth adapts a pgx pool to the health check interface.
type poolHealth struct {
	pool *pgxpool.Pool
}

func (p poolHealth) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
