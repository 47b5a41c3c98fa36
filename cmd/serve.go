package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jupiterclapton/cenackle/services/engagement-service/config"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/primary/events"
	grpc_adapter "github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/primary/grpc"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/primary/rest"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/secondary/cache"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/secondary/graph"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/secondary/memstore"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/secondary/security"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/services"
)

const shutdownTimeout = 10 * time.Second

// store regroupe ce que Postgres et le store mémoire implémentent tous deux.
type store interface {
	ports.RelationshipStore
	ports.UserRepository
	ports.FeedReader
}

func runServe(ctx context.Context) error {
	// 1. Config + Logger
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(cfg)
	slog.Info("🚀 Starting Engagement Service", "config", cfg.String())

	// 2. Tracing (non bloquant : le service tourne sans collecteur)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Error("Error shutting down tracer", "error", err)
			}
		}()
	}

	// 3. Store
	var st store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		slog.Warn("⚠️ Using in-memory store, data is lost on restart")
		st = memstore.New()
	default:
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := repository.NewPostgresRepo(pool)
		if err := repo.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		st = repo
	}

	// 4. Infrastructure optionnelle : Redis, NATS, Neo4j
	var (
		invalidators ports.Invalidators
		publisher    ports.EventPublisher
		feedCache    ports.FeedCache
		serviceOpts  []services.Option
		js           jetstream.JetStream
	)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			slog.Warn("Failed to instrument redis", "error", err)
		}
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		redisCache := cache.NewRedisFeedCache(rdb, cfg.FeedCacheTTL)
		feedCache = redisCache
		invalidators = append(invalidators, redisCache)
		slog.Info("✅ Redis feed cache connected")
	}

	if cfg.NatsUrl != "" {
		nc, err := nats.Connect(cfg.NatsUrl, nats.Name(cfg.ServiceName))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()

		broker, err := eventbroker.NewNatsBroker(ctx, nc)
		if err != nil {
			return err
		}
		publisher = broker
		invalidators = append(invalidators, broker)
		js = broker.JetStream()
		slog.Info("✅ NATS JetStream connected")
	}

	var graphRepo ports.GraphRepository
	if cfg.Neo4jURI != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		defer driver.Close(context.Background())
		if err := driver.VerifyConnectivity(ctx); err != nil {
			return fmt.Errorf("neo4j connectivity: %w", err)
		}

		repo := graph.NewNeo4jRepo(driver)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("neo4j schema: %w", err)
		}
		graphRepo = repo
		serviceOpts = append(serviceOpts, services.WithGraph(repo))
		slog.Info("✅ Neo4j graph connected")
	}

	// 5. Sécurité : clé publique du fournisseur d'identité
	var verifier ports.PrincipalVerifier
	if cfg.AuthPublicKeyPath != "" {
		pem, err := os.ReadFile(cfg.AuthPublicKeyPath)
		if err != nil {
			return fmt.Errorf("reading public key: %w", err)
		}
		jwtVerifier, err := security.NewJWTVerifier(pem, cfg.AuthIssuer)
		if err != nil {
			return err
		}
		verifier = jwtVerifier
	} else {
		slog.Warn("⚠️ AUTH_PUBLIC_KEY_PATH not set, every caller is anonymous")
	}

	// 6. Wiring (Injection de dépendances) - Adapters -> Services
	identityService := services.NewIdentityService(st, verifier)
	engagementService := services.NewEngagementService(st, st, invalidators, publisher, serviceOpts...)
	feedService := services.NewFeedService(st, st, feedCache)

	// 7. Consumer de projection (Neo4j alimenté par engagement.follow.*)
	if graphRepo != nil && js != nil {
		handler := events.NewGraphProjectionHandler(js, services.NewGraphProjection(graphRepo))
		consumeCtx, err := handler.Start(ctx)
		if err != nil {
			return err
		}
		defer consumeCtx.Stop()
		slog.Info("🎧 Graph projection consumer started", "consumer", events.ConsumerName)
	}

	// 8. Serveur gRPC
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCPort, err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpc_adapter.UnaryAuthInterceptor(identityService)),
	)
	grpc_adapter.NewServer(identityService, engagementService, feedService).Register(grpcServer)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(cfg.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// 9. Serveur HTTP
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           rest.NewHandler(identityService, engagementService, feedService).Router(cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		slog.Info("🚀 gRPC Server listening", "address", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		slog.Info("📡 HTTP Server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	// 10. Graceful Shutdown
	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("⚠️  Signal received, shutting down...")
	case serveErr = <-errCh:
		slog.Error("Server failed", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced to shutdown", "error", err)
	}

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("✅ gRPC Server stopped gracefully")
	case <-shutdownCtx.Done():
		slog.Warn("⏳ Timeout reached, forcing server stop")
		grpcServer.Stop()
	}

	slog.Info("👋 Service stopped")
	return serveErr
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DB config: %w", err)
	}
	dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()
	dbConfig.MaxConns = cfg.DBMaxConnections
	dbConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Fail fast
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	slog.Info("✅ Database connected", "max_conns", cfg.DBMaxConnections)
	return pool, nil
}
