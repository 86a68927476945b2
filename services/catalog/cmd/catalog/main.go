package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/example/game-store/internal/platform/auth"
	"github.com/example/game-store/internal/platform/config"
	"github.com/example/game-store/internal/platform/db"
	"github.com/example/game-store/internal/platform/httpserver"
	"github.com/example/game-store/internal/platform/logging"
	"github.com/example/game-store/internal/platform/natsconn"
	"github.com/example/game-store/internal/platform/run"
	"github.com/example/game-store/services/catalog/internal/cache"
	catalogconfig "github.com/example/game-store/services/catalog/internal/config"
	"github.com/example/game-store/services/catalog/internal/grpcapi"
	"github.com/example/game-store/services/catalog/internal/handlers"
	"github.com/example/game-store/services/catalog/internal/legacy"
	"github.com/example/game-store/services/catalog/internal/outbox"
	"github.com/example/game-store/services/catalog/internal/query"
	"github.com/example/game-store/services/catalog/internal/resolver"
	"github.com/example/game-store/services/catalog/internal/service"
	"github.com/example/game-store/services/catalog/internal/store"
	"github.com/example/game-store/services/catalog/internal/worker"
)

func main() {
	cfg, err := config.Load("catalog")
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	catalogCfg, err := catalogconfig.LoadCatalog(cfg.IsProduction())
	if err != nil {
		fatal(log, "catalog config", err)
	}
	authCfg, err := catalogconfig.LoadAuth()
	if err != nil {
		fatal(log, "auth config", err)
	}
	grpcCfg := catalogconfig.LoadGRPC()
	outboxCfg := catalogconfig.LoadOutbox()
	workerCfg := catalogconfig.LoadWorker()

	primary, pool := initPrimary(log, catalogCfg)
	if pool != nil {
		defer pool.Close()
	}

	docs, err := initLegacy(log, catalogCfg)
	if err != nil {
		fatal(log, "legacy store", err)
	}
	defer func() { _ = docs.Close() }()

	local, err := cache.New(catalogCfg.RedisURL, catalogCfg.CacheSize, catalogCfg.CacheTTL, cfg.IsProduction())
	if err != nil {
		fatal(log, "query cache", err)
	}

	var nc *nats.Conn
	queryCache := local
	if outboxCfg.NATSURL != "" {
		nc, err = natsconn.Connect(natsconn.Options{URL: outboxCfg.NATSURL, Name: cfg.ServiceName, Logger: log})
		if err != nil {
			fatal(log, "nats connect", err)
		}
		defer nc.Close()

		queryCache = cache.NewBroadcasting(local, nc, cache.InvalidateSubject, log)
		if _, err := cache.Subscribe(nc, cache.InvalidateSubject, local, log); err != nil {
			fatal(log, "cache invalidation subscribe", err)
		}
	} else {
		log.Warn("NATS_URL not set, outbox relay and cross-instance cache invalidation disabled")
	}

	res := resolver.New(primary, docs, log)
	lister := query.NewService(primary, docs, queryCache, catalogCfg.CacheTTL, log)
	svc := service.New(primary, docs, res, queryCache, log)

	var limiter func(http.Handler) http.Handler
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter = httpserver.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst).Middleware
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: readiness(pool), Logger: log, Metrics: true})
	handlers.Register(r, handlers.Deps{
		Lister:     lister,
		Games:      svc,
		Genres:     svc,
		Publishers: svc,
		Platforms:  svc,
		Cart:       svc,
		Verifier:   auth.JWTVerifier{Secret: authCfg.JWTSecret},
		Limiter:    limiter,
		Log:        log,
	})
	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	lis, err := net.Listen("tcp", grpcCfg.Addr)
	if err != nil {
		fatal(log, "grpc listen", err)
	}
	grpcSrv := grpc.NewServer()
	grpcapi.Register(grpcSrv, &grpcapi.CatalogService{Lister: lister, Resolver: res, Log: log})
	if grpcCfg.Reflection {
		reflection.Register(grpcSrv)
	}
	go func() {
		log.Info("grpc server starting", zap.String("addr", grpcCfg.Addr), zap.String("content_subtype", grpcapi.ContentSubtype))
		if err := grpcSrv.Serve(lis); err != nil {
			log.Error("grpc serve", zap.Error(err))
		}
	}()

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if nc != nil {
			if err := startEvents(ctx, log, nc, pool, local, outboxCfg); err != nil {
				return err
			}
			if workerCfg.CommentCounts {
				startCommentCounts(ctx, log, nc, &worker.CommentCounter{
					Store:         primary,
					Resolver:      res,
					Cache:         queryCache,
					Log:           log,
					BatchSize:     workerCfg.BatchSize,
					BatchInterval: workerCfg.BatchInterval,
				})
			}
		}

		go func() {
			<-ctx.Done()
			stopped := make(chan struct{})
			go func() {
				grpcSrv.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-time.After(10 * time.Second):
				grpcSrv.Stop()
			}
			runner.Graceful("http", srv.Shutdown)
		}()
		return srv.Start()
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initPrimary selects the primary store. Without DATABASE_URL it falls back
// to the in-memory store; LoadCatalog already rejected that in production.
func initPrimary(log *zap.Logger, cfg catalogconfig.CatalogConfig) (store.Store, *pgxpool.Pool) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory primary store (development only)")
		return store.NewMemory(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.OpenDSN(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal(log, "db open", err)
	}
	log.Info("primary store: postgres")
	return store.NewPostgres(pool), pool
}

func initLegacy(log *zap.Logger, cfg catalogconfig.CatalogConfig) (*legacy.Store, error) {
	if cfg.LegacyDBPath == "" {
		log.Warn("LEGACY_DB_PATH not set, using an empty in-memory legacy store (development only)")
		return legacy.OpenInMemory()
	}
	log.Info("legacy store: badger", zap.String("path", cfg.LegacyDBPath))
	return legacy.Open(cfg.LegacyDBPath)
}

// startEvents runs the outbox relay (Postgres only) and evicts the local
// cache whenever a catalog event is published by any writer.
func startEvents(ctx context.Context, log *zap.Logger, nc *nats.Conn, pool *pgxpool.Pool, local cache.QueryCache, cfg catalogconfig.OutboxConfig) error {
	js, err := nc.JetStream()
	if err != nil {
		return err
	}

	if pool != nil {
		if err := outbox.EnsureStream(js); err != nil {
			return err
		}
		pub := outbox.NewPublisher(log, outbox.PostgresSource{DB: pool}, js)
		pub.BatchSize = cfg.BatchSize
		pub.PollInterval = cfg.PollInterval
		go func() {
			if err := pub.Run(ctx); err != nil {
				log.Error("outbox publisher stopped", zap.Error(err))
			}
		}()
	}

	inv := &outbox.Invalidator{Cache: local, Log: log}
	if _, err := inv.Subscribe(js); err != nil {
		// Without a stream there are no catalog events to follow.
		log.Warn("catalog event subscription unavailable", zap.Error(err))
	}
	return nil
}

// startCommentCounts keeps games.comment_count in step with social comment
// events.
func startCommentCounts(ctx context.Context, log *zap.Logger, nc *nats.Conn, c *worker.CommentCounter) {
	js, err := nc.JetStream()
	if err != nil {
		log.Warn("comment counts disabled", zap.Error(err))
		return
	}
	go func() {
		if err := c.Run(ctx, js); err != nil {
			log.Error("comment counter stopped", zap.Error(err))
		}
	}()
}

func readiness(pool *pgxpool.Pool) func() error {
	if pool == nil {
		return nil
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	}
}

func fatal(log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	_ = log.Sync()
	run.Exit(1)
}
