package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HitaloNasc/v-lab-tech-lead-test/config"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/api/handler"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/api/middleware"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/api/router"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/audit"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/metrics"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/repository"
	"github.com/HitaloNasc/v-lab-tech-lead-test/internal/service"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/database"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/jwt"
	applogger "github.com/HitaloNasc/v-lab-tech-lead-test/pkg/logger"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/password"
	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Load(os.Getenv("VLAB_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database and migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// 4. Redis is optional: without it tokens are not revocable and requests are not rate limited
	var (
		tokens  service.TokenStore
		revoked middleware.RevocationChecker
		raw     *goredis.Client
	)
	healthDeps := map[string]handler.Pinger{}
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, token revocation and rate limiting disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			tokens, revoked, raw = rdb, rdb, rdb.Raw()
			healthDeps["redis"] = rdb
		}
	}

	// 5. audit sink
	var publisher audit.Publisher = audit.NewLogPublisher(logger)
	if cfg.Audit.Enabled {
		kp := audit.NewKafkaPublisher(&cfg.Audit, logger)
		defer kp.Close()
		publisher = kp
	}

	// 6. Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	hasher := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	m := metrics.New()

	repo := repository.NewRepository(db)
	healthDeps["database"] = repo

	svc := service.NewService(cfg, repo, jwtMgr, hasher, tokens, publisher, m, logger)
	h := handler.NewHandler(svc, handler.NewHealthHandler(healthDeps))

	gin.SetMode(gin.ReleaseMode)
	engine := router.Setup(cfg, h, router.Deps{
		JWT:     jwtMgr,
		Revoked: revoked,
		Redis:   raw,
		Metrics: m,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// 7. serve until SIGINT/SIGTERM, then drain
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
