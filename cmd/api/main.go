package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cdr-mock/internal/audit"
	"cdr-mock/internal/auth"
	"cdr-mock/internal/broker"
	"cdr-mock/internal/cdr"
	"cdr-mock/internal/config"
	"cdr-mock/internal/httpapi"
	"cdr-mock/internal/reporting"
	"cdr-mock/pkg/logger"
	"cdr-mock/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	rootCtx = logger.With(rootCtx, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Record engine
	svcOpts := []reporting.Option{}
	var producer *broker.Producer
	if cfg.BrokerEnabled() {
		producer, err = broker.NewProducer(broker.Config{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			Compression: cfg.Kafka.Compression,
			MaxRetries:  3,
		})
		if err != nil {
			log.Error("kafka producer init failed", "err", err)
			os.Exit(1)
		}
		svcOpts = append(svcOpts, reporting.WithPublisher(producer))
		log.Info("kafka publishing enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	svc := reporting.NewService(cdr.NewFactory(), svcOpts...)

	// Sessions and users
	tokens, closeSessions, err := openTokenStore(rootCtx, cfg, log)
	if err != nil {
		log.Error("session store init failed", "err", err)
		os.Exit(1)
	}
	defer closeSessions()

	users, closeUsers, err := openUserDirectory(rootCtx, cfg)
	if err != nil {
		log.Error("user directory init failed", "err", err)
		os.Exit(1)
	}
	defer closeUsers()

	h := httpapi.Handlers{
		Reporting:  svc,
		Tokens:     tokens,
		Users:      users,
		Audit:      audit.NewService(audit.NewLogRepo(log)),
		SessionTTL: cfg.Auth.SessionTTL,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(cfg, log, h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening",
			"addr", srv.Addr,
			"env", cfg.App.Env,
			"auth_required", cfg.Auth.Required,
			"session_store", cfg.Auth.SessionStore,
			"user_source", cfg.Users.Source,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("kafka producer close failed", "err", err)
		}
	}
}

// openTokenStore builds the session store for the configured backend. The returned func
// releases backend resources.
func openTokenStore(ctx context.Context, cfg config.Config, log *slog.Logger) (*auth.Store, func(), error) {
	signer, err := auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTL)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Auth.SessionStore {
	case config.SessionStoreRedis:
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				log.Error("redis close failed", "err", err)
			}
		}
		return auth.NewStore(signer, auth.NewRedisBackend(rdb, nil)), closeFn, nil
	default:
		mem := auth.NewMemoryBackend(nil)
		go mem.Run(ctx, cfg.Auth.SweepInterval)
		return auth.NewStore(signer, mem), func() {}, nil
	}
}

func openUserDirectory(ctx context.Context, cfg config.Config) (auth.Directory, func(), error) {
	noop := func() {}

	switch cfg.Users.Source {
	case config.UserSourceFile:
		users, err := auth.LoadUsersFile(cfg.Users.File)
		if err != nil {
			return nil, nil, err
		}
		return auth.NewStaticDirectory(users), noop, nil
	case config.UserSourceEnv:
		users, err := auth.ParseUsers(cfg.Users.Encoded)
		if err != nil {
			return nil, nil, err
		}
		return auth.NewStaticDirectory(users), noop, nil
	case config.UserSourcePostgres:
		db, err := utils.OpenPostgres(ctx, cfg.PostgresDSN(), utils.PostgresPoolConfig{
			MaxConns:        cfg.DB.MaxConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		return auth.NewPostgresDirectory(db, cfg.DB.LookupTimeout), func() { _ = db.Close() }, nil
	default:
		return auth.NewStaticDirectory(auth.DemoUsers()), noop, nil
	}
}
