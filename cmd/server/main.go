package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	appservice "github.com/turtacn/sfauth/internal/application/service"
	"github.com/turtacn/sfauth/internal/config"
	domainservice "github.com/turtacn/sfauth/internal/domain/service"
	"github.com/turtacn/sfauth/internal/infrastructure/audit"
	"github.com/turtacn/sfauth/internal/infrastructure/cache"
	"github.com/turtacn/sfauth/internal/infrastructure/crypto"
	"github.com/turtacn/sfauth/internal/infrastructure/monitoring"
	"github.com/turtacn/sfauth/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/sfauth/internal/infrastructure/salesforce"
	httpiface "github.com/turtacn/sfauth/internal/interfaces/http"
	"github.com/turtacn/sfauth/internal/interfaces/http/handlers"
	"github.com/turtacn/sfauth/pkg/logger"
)

func main() {
	startupLogger, _ := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})

	loader, err := config.LoadConfig(startupLogger)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := loader.Current()

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader.Watch(ctx)

	tracing, err := monitoring.NewTracingManager(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	db, err := postgres.NewDBConnection(ctx, cfg.Database, appLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisConn, err := cache.NewRedisConnection(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisConn.Close()

	encryptor, err := buildEncryptor(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize encryptor: %v", err)
	}

	auditPublisher, err := buildAuditPublisher(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize audit publisher: %v", err)
	}
	defer auditPublisher.Close()

	metrics := monitoring.NewMetrics()

	// Repositories.
	sessionRepo := postgres.NewSessionRepository(db.Gorm, appLogger)
	historyRepo := postgres.NewHistoryRepository(db.Gorm, appLogger)
	tokenRepo := postgres.NewTokenRepository(db.Gorm, appLogger)
	bindingRepo := postgres.NewTokenBindingRepository(db.Gorm, appLogger)

	// Caches.
	namedCache := cache.NewRedisNamedCache(redisConn, appLogger)
	resultCache := cache.NewResultCache(namedCache, appLogger)
	stateCache := cache.NewStateCache(appLogger)

	// Login strategies. The provider hands each strategy the live config
	// snapshot so file edits take effect without a restart.
	sfConfig := func() config.SalesforceConfig { return loader.Current().Salesforce }
	oauth2Strategy := salesforce.NewOAuth2Strategy(sfConfig, stateCache, appLogger)
	registry := domainservice.NewStrategyRegistry(
		oauth2Strategy,
		salesforce.NewLegacySoapStrategy(sfConfig, appLogger),
		salesforce.NewCliDelegateStrategy(sfConfig, appLogger),
		salesforce.NewSessionIdStrategy(sfConfig, appLogger),
	)

	// Domain and application services.
	tokenManager := domainservice.NewTokenManager(tokenRepo, bindingRepo, appLogger)
	orchestrator := appservice.NewAuthOrchestrator(
		registry, sessionRepo, historyRepo, resultCache,
		encryptor, auditPublisher, tokenManager, oauth2Strategy, appLogger,
	)

	// HTTP surface.
	authHandler := handlers.NewAuthHandler(orchestrator, metrics)
	tokenHandler := handlers.NewTokenHandler(tokenManager, metrics)
	healthHandler := handlers.NewHealthHandler(db, redisConn, appLogger)
	router := httpiface.NewRouter(cfg, appLogger, healthHandler, authHandler, tokenHandler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return router.Start()
	})

	grpcServer := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, health.NewServer())
	g.Go(func() error {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC: %w", err)
		}
		appLogger.Info(gctx, "gRPC health server listening",
			logger.Int("port", cfg.Server.GRPCPort),
		)
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		return router.Stop(shutdownCtx)
	})

	appLogger.Info(ctx, "Service started",
		logger.Int("http_port", cfg.Server.Port),
		logger.Int("grpc_port", cfg.Server.GRPCPort),
	)

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatalf("Service terminated: %v", err)
	}
	appLogger.Info(context.Background(), "Service stopped")
}

// buildEncryptor selects the key source: Vault when enabled, otherwise the
// static key from the config file.
func buildEncryptor(ctx context.Context, cfg *config.Config) (domainservice.Encryptor, error) {
	var provider crypto.KeyProvider
	if cfg.Vault.Enabled {
		vaultProvider, err := crypto.NewVaultKeyProvider(cfg.Vault)
		if err != nil {
			return nil, err
		}
		provider = vaultProvider
	} else {
		provider = crypto.NewStaticKeyProvider(cfg.Crypto)
	}
	return crypto.NewAESEncryptorFromProvider(ctx, provider)
}

func buildAuditPublisher(cfg *config.Config, log logger.Logger) (domainservice.AuditPublisher, error) {
	if !cfg.Kafka.Enabled {
		return audit.NewNopPublisher(), nil
	}
	return audit.NewKafkaPublisher(cfg.Kafka, log)
}
